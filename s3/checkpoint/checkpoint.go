/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 */

// Package checkpoint records multipart upload progress: the upload ID and
// completed part ETags are snapshotted to a CBOR-encoded file after every
// completed part, and Load reads a snapshot back. s3.Client.PutObject
// writes these snapshots but takes none as input, so every call starts a
// new multipart upload; it does not resume from the last acknowledged part.
// This is the one place in the module that
// reaches for fxamacker/cbor/v2 rather than the hand-rolled cbor package:
// the hand-rolled codec is the subsystem this module exists to teach, and
// using it here too would make this package's own tests depend on the
// thing it is supposed to be testing-adjacent to, not exercising it.
package checkpoint

import (
	"os"

	"github.com/fxamacker/cbor/v2"
)

// CompletedPart is the minimal durable record needed to resume: enough to
// rebuild a CompleteMultipartUpload request without re-uploading the part.
type CompletedPart struct {
	PartNumber int32  `cbor:"partNumber"`
	ETag       string `cbor:"etag"`
}

// State is the full resumable snapshot of one in-progress multipart upload.
type State struct {
	Bucket   string          `cbor:"bucket"`
	Key      string          `cbor:"key"`
	UploadID string          `cbor:"uploadId"`
	Parts    []CompletedPart `cbor:"parts"`
}

// Save writes st to path, overwriting any prior checkpoint. Called after
// every successful UploadPart so the checkpoint never falls more than one
// part behind the actual upload state.
func Save(path string, st State) error {
	data, err := cbor.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads back a checkpoint previously written by Save.
func Load(path string) (State, error) {
	var st State

	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}

	if err := cbor.Unmarshal(data, &st); err != nil {
		return st, err
	}

	return st, nil
}

// CompletedPartNumbers returns the set of part numbers already recorded as
// completed, letting a resuming caller skip re-uploading them.
func (s State) CompletedPartNumbers() map[int32]string {
	m := make(map[int32]string, len(s.Parts))
	for _, p := range s.Parts {
		m[p.PartNumber] = p.ETag
	}
	return m
}
