/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package pom

import "testing"

func TestParseCoordinateThreeSegments(t *testing.T) {
	c, err := ParseCoordinate("org.example:engine:1.2.3")
	if err != nil {
		t.Fatalf("ParseCoordinate: %v", err)
	}
	if c.GroupID != "org.example" || c.ArtifactID != "engine" || c.Version != "1.2.3" {
		t.Errorf("coordinate = %+v", c)
	}
	if c.String() != "org.example:engine:1.2.3" {
		t.Errorf("String() = %q", c.String())
	}
}

func TestParseCoordinateWithPackagingAndClassifier(t *testing.T) {
	c, err := ParseCoordinate("org.example:engine:jar:sources:1.2.3")
	if err != nil {
		t.Fatalf("ParseCoordinate: %v", err)
	}
	if c.Packaging != "jar" || c.Classifier != "sources" || c.Version != "1.2.3" {
		t.Errorf("coordinate = %+v", c)
	}
}

func TestParseCoordinateRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "only", "a:b", "a:b:c:d:e:f", "a::1.0", ":b:1.0", "a:b:"} {
		if _, err := ParseCoordinate(s); err == nil {
			t.Errorf("ParseCoordinate(%q) should fail", s)
		}
	}
}

func TestGitHubScm(t *testing.T) {
	scm := GitHubScm("ristretto-vm", "ristretto")
	if scm.Connection != "scm:git:git://github.com/ristretto-vm/ristretto.git" {
		t.Errorf("Connection = %q", scm.Connection)
	}
	if scm.URL != "https://github.com/ristretto-vm/ristretto" {
		t.Errorf("URL = %q", scm.URL)
	}
	if scm.Tag != "HEAD" {
		t.Errorf("Tag = %q", scm.Tag)
	}
}
