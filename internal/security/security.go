/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package security checks detached PKCS#7 signatures over module-patch
// archives before a --patch-module entry is trusted. An unsigned or
// badly signed patch is dropped with a logged reason rather than
// silently applied.
package security

import (
	"crypto/x509"
	"fmt"
	"os"

	"go.mozilla.org/pkcs7"

	"ristretto/log"
)

// VerifyDetached checks a detached PKCS#7 signature over content.
// roots, when non-nil, pins the accepted certificate authorities;
// a nil pool accepts any chain the signature embeds (the caller is
// trusting the signer list, not the CA set).
func VerifyDetached(content, signature []byte, roots *x509.CertPool) error {
	p7, err := pkcs7.Parse(signature)
	if err != nil {
		return fmt.Errorf("security: parsing PKCS#7 signature: %w", err)
	}
	p7.Content = content
	if roots != nil {
		if err := p7.VerifyWithChain(roots); err != nil {
			return fmt.Errorf("security: signature chain verification failed: %w", err)
		}
		return nil
	}
	if err := p7.Verify(); err != nil {
		return fmt.Errorf("security: signature verification failed: %w", err)
	}
	return nil
}

// VerifyModulePatch validates patchPath against its detached signature
// at patchPath + ".p7s". Reports whether the patch may be applied; a
// missing or invalid signature rejects the patch and logs why.
func VerifyModulePatch(patchPath string, roots *x509.CertPool) bool {
	content, err := os.ReadFile(patchPath)
	if err != nil {
		log.Log(fmt.Sprintf("rejecting module patch %s: %v", patchPath, err), log.WARNING)
		return false
	}
	signature, err := os.ReadFile(patchPath + ".p7s")
	if err != nil {
		log.Log(fmt.Sprintf("rejecting unsigned module patch %s: %v", patchPath, err), log.WARNING)
		return false
	}
	if err := VerifyDetached(content, signature, roots); err != nil {
		log.Log(fmt.Sprintf("rejecting module patch %s: %v", patchPath, err), log.WARNING)
		return false
	}
	return true
}

// SignerNames lists the common names on a signature's certificates, for
// diagnostics.
func SignerNames(signature []byte) ([]string, error) {
	p7, err := pkcs7.Parse(signature)
	if err != nil {
		return nil, fmt.Errorf("security: parsing PKCS#7 signature: %w", err)
	}
	names := make([]string, 0, len(p7.Certificates))
	for _, cert := range p7.Certificates {
		names = append(names, cert.Subject.CommonName)
	}
	return names, nil
}
