// SPDX-FileCopyrightText: © 2014 Ulrich Kunitz
//
// SPDX-License-Identifier: BSD-3-Clause

/*
Package brotli decompresses brotli streams as defined in RFC 7932.

The Reader type decompresses a stream read from an io.Reader. The
Transformer type supports the golang.org/x/text/transform package, so
streams can be decompressed with transform.NewReader or transform.Bytes.
Both are built on the resumable decoder of the dec package, which accepts
input and output in chunks of arbitrary size.

Custom dictionaries are supported; the static dictionary of the format is
not. Streams referencing it fail with an InvalidDistance error.
*/
package brotli
