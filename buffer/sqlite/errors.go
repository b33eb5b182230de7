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

package sqlite

import (
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

const pkgName = "logshipper/buffer/sqlite"

const (
	ErrorDatabaseOpen liberr.CodeError = iota + liberr.MinAvailable + 300
	ErrorDatabaseMigrate
	ErrorDatabaseQuery
	ErrorDatabaseExec
	ErrorDatabaseCannotSQLDB
	ErrorDatabaseOpenTimeout
)

func init() {
	if liberr.ExistInMapMessage(ErrorDatabaseOpen) {
		panic(fmt.Errorf("error code collision with package %s", pkgName))
	}
	liberr.RegisterIdFctMessage(ErrorDatabaseOpen, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UnknownError:
		return liberr.NullMessage
	case ErrorDatabaseOpen:
		return "buffer/sqlite: cannot open database"
	case ErrorDatabaseMigrate:
		return "buffer/sqlite: cannot migrate schema"
	case ErrorDatabaseQuery:
		return "buffer/sqlite: query failed"
	case ErrorDatabaseExec:
		return "buffer/sqlite: statement failed"
	case ErrorDatabaseCannotSQLDB:
		return "buffer/sqlite: cannot obtain sql.DB handle"
	case ErrorDatabaseOpenTimeout:
		return "buffer/sqlite: open exceeded database-timeout"
	}

	return liberr.NullMessage
}
