/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"
	"io"
	"os"

	"ristretto/excNames"
	"ristretto/object"
)

// Field names the io intrinsics hang host-side state on: the backing
// file's path and its open *os.File handle, plus an at-EOF marker.
const (
	FilePath   = "filePath"
	FileHandle = "fileHandle"
	FileAtEOF  = "fileAtEOF"
)

func Load_Io_InputStreamReader() {

	MethodSignatures["java/io/InputStreamReader.<clinit>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/io/InputStreamReader.<init>(Ljava/io/InputStream;)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  inputStreamReaderInit,
		}

	MethodSignatures["java/io/InputStreamReader.close()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  isrClose,
		}

	MethodSignatures["java/io/InputStreamReader.read()I"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  isrReadOneChar,
		}

	MethodSignatures["java/io/InputStreamReader.read([CII)I"] =
		GMeth{
			ParamSlots: 3,
			GFunction:  isrReadCharBufferSubset,
		}

	MethodSignatures["java/io/InputStreamReader.ready()Z"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  isrReady,
		}

	// -----------------------------------------
	// Traps that do nothing but return an error
	// -----------------------------------------

	MethodSignatures["java/io/InputStreamReader.<init>(Ljava/io/InputStream;Ljava/lang/String;)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  trapFunction,
		}

	MethodSignatures["java/io/InputStreamReader.<init>(Ljava/io/InputStream;Ljava/nio/charset/Charset;)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  trapFunction,
		}

	MethodSignatures["java/io/InputStreamReader.getEncoding()Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  trapFunction,
		}
}

// fileHandleOf extracts the open *os.File an earlier intrinsic stored on
// the object, nil if none is present.
func fileHandleOf(obj *object.Object) *os.File {
	fld := obj.GetField(FileHandle)
	if fld == nil {
		return nil
	}
	f, _ := fld.Fvalue.(*os.File)
	return f
}

// eofSet records on the stream object whether a read has hit EOF. ready()
// and the read intrinsics do not consult the marker.
func eofSet(obj *object.Object, eof bool) {
	obj.FieldTable[FileAtEOF] = &object.Field{Ftype: "Z", Fvalue: eof}
}

// "java/io/InputStreamReader.<init>(Ljava/io/InputStream;)V"
// Copies the underlying stream's path and handle onto the reader, so the
// reader's own read/close work directly against the host file.
func inputStreamReaderInit(params []any) any {
	reader := params[0].(*object.Object)
	stream := params[1].(*object.Object)

	fldPath := stream.GetField(FilePath)
	if fldPath == nil {
		return getGErrBlk(excNames.IOException, "InputStream object lacks a file path field")
	}
	fldHandle := stream.GetField(FileHandle)
	if fldHandle == nil {
		return getGErrBlk(excNames.IOException, "InputStream object lacks a file handle field")
	}
	osFile, ok := fldHandle.Fvalue.(*os.File)
	if !ok {
		return getGErrBlk(excNames.IOException, "InputStream file handle is not an open file")
	}
	if _, err := osFile.Stat(); err != nil {
		errMsg := fmt.Sprintf("stat of the underlying stream failed: %s", err.Error())
		return getGErrBlk(excNames.IOException, errMsg)
	}

	reader.FieldTable[FilePath] = fldPath
	reader.FieldTable[FileHandle] = fldHandle
	eofSet(reader, false)
	return nil
}

// "java/io/InputStreamReader.close()V"
func isrClose(params []any) any {
	osFile := fileHandleOf(params[0].(*object.Object))
	if osFile == nil {
		return getGErrBlk(excNames.IOException, "InputStreamReader object lacks a file handle field")
	}
	if err := osFile.Close(); err != nil {
		errMsg := fmt.Sprintf("close failed: %s", err.Error())
		return getGErrBlk(excNames.IOException, errMsg)
	}
	return nil
}

// "java/io/InputStreamReader.read()I"
func isrReadOneChar(params []any) any {
	obj := params[0].(*object.Object)
	osFile := fileHandleOf(obj)
	if osFile == nil {
		return getGErrBlk(excNames.IOException, "InputStreamReader object lacks a file handle field")
	}

	buffer := make([]byte, 1)
	_, err := osFile.Read(buffer)
	if err == io.EOF {
		eofSet(obj, true)
		return int64(-1)
	}
	if err != nil {
		errMsg := fmt.Sprintf("read failed: %s", err.Error())
		return getGErrBlk(excNames.IOException, errMsg)
	}
	return int64(buffer[0])
}

// "java/io/InputStreamReader.read([CII)I"
func isrReadCharBufferSubset(params []any) any {
	obj := params[0].(*object.Object)
	osFile := fileHandleOf(obj)
	if osFile == nil {
		return getGErrBlk(excNames.IOException, "InputStreamReader object lacks a file handle field")
	}

	chars := charArrayContents(params[1].(*object.Object))
	if chars == nil {
		return getGErrBlk(excNames.IOException, "read buffer is not a char array")
	}
	offset := params[2].(int64)
	length := params[3].(int64)

	if length == 0 {
		return int64(0)
	}
	if length < 0 || offset < 0 || length > int64(len(chars))-offset {
		errMsg := fmt.Sprintf("offset=%d, length=%d, buffer length=%d", offset, length, len(chars))
		return getGErrBlk(excNames.IndexOutOfBoundsException, errMsg)
	}

	inBytes := make([]byte, length)
	nbytes, err := osFile.Read(inBytes)
	if err == io.EOF {
		eofSet(obj, true)
		return int64(-1)
	}
	if err != nil {
		errMsg := fmt.Sprintf("read failed: %s", err.Error())
		return getGErrBlk(excNames.IOException, errMsg)
	}

	for i := 0; i < nbytes; i++ {
		chars[offset+int64(i)] = uint16(inBytes[i])
	}
	return int64(nbytes)
}

// "java/io/InputStreamReader.ready()Z"
func isrReady(params []any) any {
	obj := params[0].(*object.Object)
	osFile := fileHandleOf(obj)
	if osFile == nil {
		return getGErrBlk(excNames.IOException, "InputStreamReader object lacks a file handle field")
	}
	if _, err := osFile.Stat(); err != nil {
		return int64(0)
	}
	return int64(1)
}
