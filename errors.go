/*
 * MIT License
 *
 * Copyright (c) 2026 logshipper authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logshipper

import (
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "logshipper"

const (
	ErrorValidatorError liberr.CodeError = iota + liberr.MinAvailable + 700
	ErrorConfigInvalid
	ErrorBufferOpen
	ErrorTransportBuild
	ErrorMonitorBuild
)

func init() {
	if liberr.ExistInMapMessage(ErrorValidatorError) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorValidatorError, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorValidatorError:
		return "logshipper: config validation failed"
	case ErrorConfigInvalid:
		return "logshipper: config invalid"
	case ErrorBufferOpen:
		return "logshipper: durable buffer open failed"
	case ErrorTransportBuild:
		return "logshipper: transport construction failed"
	case ErrorMonitorBuild:
		return "logshipper: monitor construction failed"
	}

	return liberr.NullMessage
}
