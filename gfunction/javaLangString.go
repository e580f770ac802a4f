/*
 * Ristretto VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Ristretto authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ristretto/excNames"
	"ristretto/object"
	"ristretto/types"
)

// We don't run String's static initializer block because the
// initialization is already handled in String creation.

func Load_Lang_String() {

	// === OBJECT INSTANTIATION ===

	MethodSignatures["java/lang/String.<clinit>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  justReturn,
		}

	MethodSignatures["java/lang/String.<init>()V"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  newEmptyString,
		}

	// String(byte[] bytes) - instantiate a String from a byte array
	MethodSignatures["java/lang/String.<init>([B)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  newStringFromBytes,
		}

	// String(byte[] ascii, int hibyte) *** DEPRECATED
	MethodSignatures["java/lang/String.<init>([BI)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  trapDeprecated,
		}

	// String(byte[] bytes, int offset, int length)
	MethodSignatures["java/lang/String.<init>([BII)V"] =
		GMeth{
			ParamSlots: 3,
			GFunction:  newStringFromBytesSubset,
		}

	// Charset-taking constructors
	MethodSignatures["java/lang/String.<init>([BIILjava/lang/String;)V"] =
		GMeth{
			ParamSlots: 4,
			GFunction:  trapFunction,
		}

	MethodSignatures["java/lang/String.<init>([BLjava/nio/charset/Charset;)V"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  trapFunction,
		}

	// String(char[] value)
	MethodSignatures["java/lang/String.<init>([C)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  newStringFromChars,
		}

	MethodSignatures["java/lang/String.<init>(Ljava/lang/StringBuffer;)V"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  trapFunction,
		}

	// ==== METHOD FUNCTIONS (in alpha order by their Java names) ====

	MethodSignatures["java/lang/String.charAt(I)C"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringCharAt,
		}

	// Compare 2 strings lexicographically; the return value is negative,
	// zero, or positive as the receiver is less than, equal to, or
	// greater than the argument.
	MethodSignatures["java/lang/String.compareTo(Ljava/lang/String;)I"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  compareToCaseSensitive,
		}

	MethodSignatures["java/lang/String.compareToIgnoreCase(Ljava/lang/String;)I"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  compareToIgnoreCase,
		}

	MethodSignatures["java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringConcat,
		}

	MethodSignatures["java/lang/String.contains(Ljava/lang/CharSequence;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringContains,
		}

	MethodSignatures["java/lang/String.contentEquals(Ljava/lang/CharSequence;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringEquals,
		}

	MethodSignatures["java/lang/String.equals(Ljava/lang/Object;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringEquals,
		}

	MethodSignatures["java/lang/String.equalsIgnoreCase(Ljava/lang/String;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringEqualsIgnoreCase,
		}

	// String.format(format, args...) and its instance-method twin
	MethodSignatures["java/lang/String.format(Ljava/lang/String;[Ljava/lang/Object;)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  sprintf,
		}

	MethodSignatures["java/lang/String.formatted([Ljava/lang/Object;)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  sprintf,
		}

	MethodSignatures["java/lang/String.format(Ljava/util/Locale;Ljava/lang/String;[Ljava/lang/Object;)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 3,
			GFunction:  trapFunction,
		}

	MethodSignatures["java/lang/String.getBytes()[B"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  getBytesFromString,
		}

	MethodSignatures["java/lang/String.getBytes(II[BI)V"] =
		GMeth{
			ParamSlots: 4,
			GFunction:  trapDeprecated,
		}

	MethodSignatures["java/lang/String.getBytes(Ljava/nio/charset/Charset;)[B"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  trapFunction,
		}

	MethodSignatures["java/lang/String.indexOf(Ljava/lang/String;)I"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  indexOfString,
		}

	MethodSignatures["java/lang/String.isEmpty()Z"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringIsEmpty,
		}

	MethodSignatures["java/lang/String.isLatin1()Z"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  isLatin1,
		}

	MethodSignatures["java/lang/String.lastIndexOf(Ljava/lang/String;)I"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  lastIndexOfString,
		}

	MethodSignatures["java/lang/String.length()I"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringLength,
		}

	MethodSignatures["java/lang/String.matches(Ljava/lang/String;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringMatches,
		}

	MethodSignatures["java/lang/String.regionMatches(ILjava/lang/String;II)Z"] =
		GMeth{
			ParamSlots: 4,
			GFunction:  stringRegionMatchesILII,
		}

	MethodSignatures["java/lang/String.repeat(I)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringRepeat,
		}

	MethodSignatures["java/lang/String.replace(CC)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  stringReplaceCC,
		}

	MethodSignatures["java/lang/String.split(Ljava/lang/String;)[Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringSplit,
		}

	MethodSignatures["java/lang/String.startsWith(Ljava/lang/String;)Z"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  stringStartsWith,
		}

	MethodSignatures["java/lang/String.substring(I)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  substringToTheEnd,
		}

	MethodSignatures["java/lang/String.substring(II)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  substringStartEnd,
		}

	MethodSignatures["java/lang/String.toCharArray()[C"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  toCharArray,
		}

	MethodSignatures["java/lang/String.toLowerCase()Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  toLowerCase,
		}

	MethodSignatures["java/lang/String.toString()Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  stringToString,
		}

	MethodSignatures["java/lang/String.toUpperCase()Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  toUpperCase,
		}

	MethodSignatures["java/lang/String.trim()Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 0,
			GFunction:  trimString,
		}

	MethodSignatures["java/lang/String.valueOf(Z)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  valueOfBoolean,
		}

	MethodSignatures["java/lang/String.valueOf(C)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  valueOfChar,
		}

	MethodSignatures["java/lang/String.valueOf([C)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  valueOfCharArray,
		}

	MethodSignatures["java/lang/String.valueOf([CII)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 3,
			GFunction:  valueOfCharSubarray,
		}

	MethodSignatures["java/lang/String.valueOf(D)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  valueOfDouble,
		}

	MethodSignatures["java/lang/String.valueOf(F)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  valueOfFloat,
		}

	MethodSignatures["java/lang/String.valueOf(I)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 1,
			GFunction:  valueOfInt,
		}

	MethodSignatures["java/lang/String.valueOf(J)Ljava/lang/String;"] =
		GMeth{
			ParamSlots: 2,
			GFunction:  valueOfLong,
		}
}

// ==== INSTANTIATION AND INITIALIZATION FUNCTIONS ====

// "java/lang/String.<init>()V"
func newEmptyString(params []any) any {
	object.UpdateStringObjectFromBytes(params[0].(*object.Object), nil)
	return nil
}

// "java/lang/String.<init>([B)V"
func newStringFromBytes(params []any) any {
	raw := object.ByteArrayFromStringObject(params[1].(*object.Object))
	object.UpdateStringObjectFromBytes(params[0].(*object.Object), raw)
	return nil
}

// "java/lang/String.<init>([BII)V"
func newStringFromBytesSubset(params []any) any {
	raw := object.ByteArrayFromStringObject(params[1].(*object.Object))
	offset := params[2].(int64)
	count := params[3].(int64)

	total := int64(len(raw))
	if offset < 0 || count < 0 || offset+count > total {
		errMsg := fmt.Sprintf("offset=%d, count=%d, length=%d", offset, count, total)
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	object.UpdateStringObjectFromBytes(params[0].(*object.Object), raw[offset:offset+count])
	return nil
}

// "java/lang/String.<init>([C)V"
func newStringFromChars(params []any) any {
	chars := charArrayContents(params[1].(*object.Object))
	s := object.StringObjectFromGoString(stringFromChars(chars))
	params[0].(*object.Object).FieldTable["value"] = s.FieldTable["value"]
	return nil
}

func stringFromChars(chars []uint16) string {
	runes := make([]rune, len(chars))
	for i, c := range chars {
		runes[i] = rune(c)
	}
	return string(runes)
}

// ==== METHODS FOR STRING ACTIVITIES ====

// "java/lang/String.charAt(I)C"
func stringCharAt(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	runeArray := []rune(str)
	index := params[1].(int64)
	if index < 0 || index >= int64(len(runeArray)) {
		errMsg := fmt.Sprintf("index %d, length %d", index, len(runeArray))
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return int64(runeArray[index])
}

// "java/lang/String.compareTo(Ljava/lang/String;)I"
func compareToCaseSensitive(params []any) any {
	str1 := object.GoStringFromStringObject(params[0].(*object.Object))
	str2 := object.GoStringFromStringObject(params[1].(*object.Object))
	return int64(strings.Compare(str1, str2))
}

// "java/lang/String.compareToIgnoreCase(Ljava/lang/String;)I"
func compareToIgnoreCase(params []any) any {
	str1 := strings.ToLower(object.GoStringFromStringObject(params[0].(*object.Object)))
	str2 := strings.ToLower(object.GoStringFromStringObject(params[1].(*object.Object)))
	return int64(strings.Compare(str1, str2))
}

// "java/lang/String.concat(Ljava/lang/String;)Ljava/lang/String;"
func stringConcat(params []any) any {
	str1 := object.GoStringFromStringObject(params[0].(*object.Object))
	str2 := object.GoStringFromStringObject(params[1].(*object.Object))
	return object.StringObjectFromGoString(str1 + str2)
}

// "java/lang/String.contains(Ljava/lang/CharSequence;)Z"
// CharSequence is an interface, generally implemented by String or a
// char array; both decode through GoStringFromStringObject here.
func stringContains(params []any) any {
	target := object.GoStringFromStringObject(params[0].(*object.Object))
	search := object.GoStringFromStringObject(params[1].(*object.Object))
	if strings.Contains(target, search) {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.equals(Ljava/lang/Object;)Z"
func stringEquals(params []any) any {
	other, ok := params[1].(*object.Object)
	if !ok {
		return types.JavaBoolFalse
	}
	str1 := object.GoStringFromStringObject(params[0].(*object.Object))
	str2 := object.GoStringFromStringObject(other)
	if str1 == str2 {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.equalsIgnoreCase(Ljava/lang/String;)Z"
func stringEqualsIgnoreCase(params []any) any {
	str1 := object.GoStringFromStringObject(params[0].(*object.Object))
	str2 := object.GoStringFromStringObject(params[1].(*object.Object))
	if strings.EqualFold(str1, str2) {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.format(Ljava/lang/String;[Ljava/lang/Object;)Ljava/lang/String;"
// "java/lang/String.formatted([Ljava/lang/Object;)Ljava/lang/String;"
func sprintf(params []any) any {
	return StringFormatter(params)
}

// StringFormatter renders a format string against an Object[] argument
// array. Shared with the console/print-stream intrinsics.
func StringFormatter(params []any) any {
	if len(params) < 1 || len(params) > 2 {
		errMsg := fmt.Sprintf("StringFormatter: invalid parameter count: %d", len(params))
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}
	formatObj, ok := params[0].(*object.Object)
	if !ok {
		errMsg := fmt.Sprintf("StringFormatter: expected a format string, got %T", params[0])
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}
	if len(params) == 1 {
		return formatObj
	}
	formatString := object.GoStringFromStringObject(formatObj)

	argsObj, ok := params[1].(*object.Object)
	if !ok || argsObj == nil {
		return object.StringObjectFromGoString(formatString)
	}
	fld := argsObj.GetField("value")
	if fld == nil {
		errMsg := "StringFormatter: argument array has no value field"
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}
	ref, ok := fld.Fvalue.(*object.Reference)
	if !ok || ref == nil || ref.Kind != object.ArrayRef {
		errMsg := fmt.Sprintf("StringFormatter: expected a reference array, got Ftype %s", fld.Ftype)
		return getGErrBlk(excNames.IllegalArgumentException, errMsg)
	}

	valuesOut := make([]any, 0, len(ref.Refs))
	for _, argObj := range ref.Refs {
		if argObj == nil {
			valuesOut = append(valuesOut, "null")
			continue
		}
		vf := argObj.GetField("value")
		if vf == nil {
			valuesOut = append(valuesOut, argObj.String())
			continue
		}
		switch v := vf.Fvalue.(type) {
		case *object.Reference:
			valuesOut = append(valuesOut, object.GoStringFromStringObject(argObj))
		case bool, int32, int64, float32, float64:
			valuesOut = append(valuesOut, v)
		default:
			errMsg := fmt.Sprintf("StringFormatter: argument of unsupported type %T", vf.Fvalue)
			return getGErrBlk(excNames.IllegalArgumentException, errMsg)
		}
	}

	return object.StringObjectFromGoString(fmt.Sprintf(formatString, valuesOut...))
}

// "java/lang/String.getBytes()[B"
func getBytesFromString(params []any) any {
	raw := object.ByteArrayFromStringObject(params[0].(*object.Object))
	return byteArrayObject(raw)
}

// "java/lang/String.indexOf(Ljava/lang/String;)I"
func indexOfString(params []any) any {
	base := object.GoStringFromStringObject(params[0].(*object.Object))
	search := object.GoStringFromStringObject(params[1].(*object.Object))
	return int64(strings.Index(base, search))
}

// "java/lang/String.isEmpty()Z"
func stringIsEmpty(params []any) any {
	if len(object.ByteArrayFromStringObject(params[0].(*object.Object))) == 0 {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.lastIndexOf(Ljava/lang/String;)I"
func lastIndexOfString(params []any) any {
	base := object.GoStringFromStringObject(params[0].(*object.Object))
	search := object.GoStringFromStringObject(params[1].(*object.Object))
	return int64(strings.LastIndex(base, search))
}

// "java/lang/String.length()I"
func stringLength(params []any) any {
	return int64(len(object.ByteArrayFromStringObject(params[0].(*object.Object))))
}

// "java/lang/String.matches(Ljava/lang/String;)Z"
func stringMatches(params []any) any {
	base := object.GoStringFromStringObject(params[0].(*object.Object))
	regexString := object.GoStringFromStringObject(params[1].(*object.Object))

	regex, err := regexp.Compile(regexString)
	if err != nil {
		errMsg := fmt.Sprintf("invalid regular expression: %s", regexString)
		return getGErrBlk(excNames.PatternSyntaxException, errMsg)
	}
	if regex.MatchString(base) {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.regionMatches(ILjava/lang/String;II)Z"
// Erroneous offsets simply return false, as in the JDK, rather than
// raising an exception.
func stringRegionMatchesILII(params []any) any {
	base := object.ByteArrayFromStringObject(params[0].(*object.Object))
	baseOffset := params[1].(int64)
	compare := object.ByteArrayFromStringObject(params[2].(*object.Object))
	compareOffset := params[3].(int64)
	regionLength := params[4].(int64)

	if baseOffset < 0 || compareOffset < 0 {
		return types.JavaBoolFalse
	}
	if baseOffset+regionLength > int64(len(base)) ||
		compareOffset+regionLength > int64(len(compare)) {
		return types.JavaBoolFalse
	}
	if bytes.Equal(base[baseOffset:baseOffset+regionLength], compare[compareOffset:compareOffset+regionLength]) {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.repeat(I)Ljava/lang/String;"
func stringRepeat(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	count := params[1].(int64)
	if count < 0 {
		return getGErrBlk(excNames.IllegalArgumentException, fmt.Sprintf("count is negative: %d", count))
	}
	return object.StringObjectFromGoString(strings.Repeat(str, int(count)))
}

// "java/lang/String.replace(CC)Ljava/lang/String;"
func stringReplaceCC(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	oldChar := rune(params[1].(int64) & 0xFFFF)
	newChar := rune(params[2].(int64) & 0xFFFF)
	return object.StringObjectFromGoString(strings.ReplaceAll(str, string(oldChar), string(newChar)))
}

// "java/lang/String.split(Ljava/lang/String;)[Ljava/lang/String;"
func stringSplit(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	regexString := object.GoStringFromStringObject(params[1].(*object.Object))
	regex, err := regexp.Compile(regexString)
	if err != nil {
		errMsg := fmt.Sprintf("invalid regular expression: %s", regexString)
		return getGErrBlk(excNames.PatternSyntaxException, errMsg)
	}
	return stringArrayObject(regex.Split(str, -1))
}

// "java/lang/String.startsWith(Ljava/lang/String;)Z"
func stringStartsWith(params []any) any {
	base := object.GoStringFromStringObject(params[0].(*object.Object))
	prefix := object.GoStringFromStringObject(params[1].(*object.Object))
	if strings.HasPrefix(base, prefix) {
		return types.JavaBoolTrue
	}
	return types.JavaBoolFalse
}

// "java/lang/String.substring(I)Ljava/lang/String;"
func substringToTheEnd(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	start := params[1].(int64)
	if start < 0 || start > int64(len(str)) {
		errMsg := fmt.Sprintf("begin %d, length %d", start, len(str))
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return object.StringObjectFromGoString(str[start:])
}

// "java/lang/String.substring(II)Ljava/lang/String;"
func substringStartEnd(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	start := params[1].(int64)
	end := params[2].(int64)
	if start < 0 || end < start || end > int64(len(str)) {
		errMsg := fmt.Sprintf("begin %d, end %d, length %d", start, end, len(str))
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return object.StringObjectFromGoString(str[start:end])
}

// "java/lang/String.toCharArray()[C"
func toCharArray(params []any) any {
	str := object.GoStringFromStringObject(params[0].(*object.Object))
	runes := []rune(str)
	chars := make([]uint16, len(runes))
	for i, r := range runes {
		chars[i] = uint16(r)
	}
	return charArrayObject(chars)
}

// "java/lang/String.toLowerCase()Ljava/lang/String;"
func toLowerCase(params []any) any {
	str := strings.ToLower(object.GoStringFromStringObject(params[0].(*object.Object)))
	return object.StringObjectFromGoString(str)
}

// "java/lang/String.toString()Ljava/lang/String;"
func stringToString(params []any) any {
	return params[0].(*object.Object)
}

// "java/lang/String.toUpperCase()Ljava/lang/String;"
func toUpperCase(params []any) any {
	str := strings.ToUpper(object.GoStringFromStringObject(params[0].(*object.Object)))
	return object.StringObjectFromGoString(str)
}

// "java/lang/String.trim()Ljava/lang/String;"
func trimString(params []any) any {
	str := strings.Trim(object.GoStringFromStringObject(params[0].(*object.Object)), " ")
	return object.StringObjectFromGoString(str)
}

// "java/lang/String.valueOf(Z)Ljava/lang/String;"
func valueOfBoolean(params []any) any {
	if params[0].(int64) != 0 {
		return object.StringObjectFromGoString("true")
	}
	return object.StringObjectFromGoString("false")
}

// "java/lang/String.valueOf(C)Ljava/lang/String;"
func valueOfChar(params []any) any {
	return object.StringObjectFromGoString(fmt.Sprintf("%c", rune(params[0].(int64))))
}

// "java/lang/String.valueOf([C)Ljava/lang/String;"
func valueOfCharArray(params []any) any {
	chars := charArrayContents(params[0].(*object.Object))
	return object.StringObjectFromGoString(stringFromChars(chars))
}

// "java/lang/String.valueOf([CII)Ljava/lang/String;"
func valueOfCharSubarray(params []any) any {
	chars := charArrayContents(params[0].(*object.Object))
	offset := params[1].(int64)
	count := params[2].(int64)
	if offset < 0 || count < 0 || offset+count > int64(len(chars)) {
		errMsg := fmt.Sprintf("offset %d, count %d, length %d", offset, count, len(chars))
		return getGErrBlk(excNames.StringIndexOutOfBoundsException, errMsg)
	}
	return object.StringObjectFromGoString(stringFromChars(chars[offset : offset+count]))
}

// "java/lang/String.valueOf(D)Ljava/lang/String;"
func valueOfDouble(params []any) any {
	str := strconv.FormatFloat(params[0].(float64), 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return object.StringObjectFromGoString(str)
}

// "java/lang/String.valueOf(F)Ljava/lang/String;"
func valueOfFloat(params []any) any {
	str := strconv.FormatFloat(params[0].(float64), 'f', -1, 32)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return object.StringObjectFromGoString(str)
}

// "java/lang/String.valueOf(I)Ljava/lang/String;"
func valueOfInt(params []any) any {
	return object.StringObjectFromGoString(fmt.Sprintf("%d", params[0].(int64)))
}

// "java/lang/String.valueOf(J)Ljava/lang/String;"
func valueOfLong(params []any) any {
	return object.StringObjectFromGoString(fmt.Sprintf("%d", params[0].(int64)))
}
