// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"errors"

	"github.com/heritage-archive/hrag/cache"
	"github.com/heritage-archive/hrag/core"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var errCorruptEntry = errors.New("corrupt cache entry")

// EntryMUS is the MUS serializer for cache entries stored in Badger.
// Field order below is the wire order; append new fields at the end.
var EntryMUS = entryMUS{}

var _ mus.Serializer[cache.Entry] = EntryMUS

type entryMUS struct{}

func (s entryMUS) Marshal(v cache.Entry, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.Kind), bs)
	n += ord.String.Marshal(v.Query, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += varint.Int.Marshal(v.Limit, bs[n:])
	n += varint.PositiveInt.Marshal(len(v.Embedding), bs[n:])
	for _, f := range v.Embedding {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	n += varint.PositiveInt.Marshal(len(v.Results), bs[n:])
	for _, r := range v.Results {
		n += marshalResult(r, bs[n:])
	}
	n += raw.Float64.Marshal(v.Timestamp, bs[n:])
	return
}

func (s entryMUS) Unmarshal(bs []byte) (v cache.Entry, n int, err error) {
	d := decoder{bs: bs}
	v.Kind = cache.Kind(decode(&d, ord.String))
	v.Query = decode(&d, ord.String)
	v.Model = decode(&d, ord.String)
	v.Limit = decode(&d, varint.Int)
	if l := d.length(); l > 0 {
		v.Embedding = make([]float32, l)
		for i := range v.Embedding {
			v.Embedding[i] = decode(&d, raw.Float32)
		}
	}
	if l := d.length(); l > 0 {
		v.Results = make([]core.SearchResult, l)
		for i := range v.Results {
			v.Results[i] = unmarshalResult(&d)
		}
	}
	v.Timestamp = decode(&d, raw.Float64)
	return v, d.n, d.err
}

func (s entryMUS) Size(v cache.Entry) (size int) {
	size = ord.String.Size(string(v.Kind))
	size += ord.String.Size(v.Query)
	size += ord.String.Size(v.Model)
	size += varint.Int.Size(v.Limit)
	size += varint.PositiveInt.Size(len(v.Embedding))
	for _, f := range v.Embedding {
		size += raw.Float32.Size(f)
	}
	size += varint.PositiveInt.Size(len(v.Results))
	for _, r := range v.Results {
		size += sizeResult(r)
	}
	return size + raw.Float64.Size(v.Timestamp)
}

func (s entryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

func marshalResult(r core.SearchResult, bs []byte) (n int) {
	p := r.Payload
	n = ord.String.Marshal(p.Source, bs)
	n += ord.String.Marshal(p.Title, bs[n:])
	n += ord.String.Marshal(p.Region, bs[n:])
	n += ord.String.Marshal(p.Date, bs[n:])
	n += ord.String.Marshal(p.Lang, bs[n:])
	n += varint.Int.Marshal(p.ChunkIndex, bs[n:])
	n += ord.String.Marshal(p.Text, bs[n:])
	n += ord.String.Marshal(p.File, bs[n:])
	n += raw.Float32.Marshal(r.Score, bs[n:])
	return
}

func unmarshalResult(d *decoder) (r core.SearchResult) {
	r.Payload.Source = decode(d, ord.String)
	r.Payload.Title = decode(d, ord.String)
	r.Payload.Region = decode(d, ord.String)
	r.Payload.Date = decode(d, ord.String)
	r.Payload.Lang = decode(d, ord.String)
	r.Payload.ChunkIndex = decode(d, varint.Int)
	r.Payload.Text = decode(d, ord.String)
	r.Payload.File = decode(d, ord.String)
	r.Score = decode(d, raw.Float32)
	return
}

func sizeResult(r core.SearchResult) (size int) {
	p := r.Payload
	size = ord.String.Size(p.Source)
	size += ord.String.Size(p.Title)
	size += ord.String.Size(p.Region)
	size += ord.String.Size(p.Date)
	size += ord.String.Size(p.Lang)
	size += varint.Int.Size(p.ChunkIndex)
	size += ord.String.Size(p.Text)
	size += ord.String.Size(p.File)
	return size + raw.Float32.Size(r.Score)
}

// decoder threads the read offset and first error through a sequence of
// field reads. Once err is set every further read is a no-op.
type decoder struct {
	bs  []byte
	n   int
	err error
}

type unmarshaller[T any] interface {
	Unmarshal(bs []byte) (v T, n int, err error)
}

func decode[T any](d *decoder, u unmarshaller[T]) (v T) {
	if d.err != nil {
		return
	}
	v, n, err := u.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return
}

// length reads a slice length. Every element takes at least one byte, so a
// length beyond the remaining input marks the entry corrupt.
func (d *decoder) length() int {
	l := decode(d, varint.PositiveInt)
	if d.err == nil && (l < 0 || l > len(d.bs)-d.n) {
		d.err = errCorruptEntry
	}
	if d.err != nil {
		return 0
	}
	return l
}

// MarshalEntry serializes an entry to bytes.
func MarshalEntry(e cache.Entry) []byte {
	buf := make([]byte, EntryMUS.Size(e))
	EntryMUS.Marshal(e, buf)
	return buf
}

// UnmarshalEntry deserializes an entry from bytes.
func UnmarshalEntry(data []byte) (cache.Entry, error) {
	e, n, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return cache.Entry{}, err
	}
	if n != len(data) {
		return cache.Entry{}, errCorruptEntry
	}
	return e, nil
}
