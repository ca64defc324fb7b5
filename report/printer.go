// Copyright 2024 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package report

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"
)

// LinePrinter writes whole lines to an underlying writer that is shared by
// concurrent workers. Each line is handed to the writer in a single Write
// call while holding a lock, so lines never interleave.
type LinePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLinePrinter returns a LinePrinter writing to w.
func NewLinePrinter(w io.Writer) *LinePrinter {
	return &LinePrinter{w: w}
}

// Println writes line, terminated by a newline.
func (p *LinePrinter) Println(line string) error {
	b := make([]byte, 0, len(line)+1)
	b = append(b, line...)
	b = append(b, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(b); err != nil {
		return errors.Wrap(err, "cannot write report line")
	}
	return nil
}
