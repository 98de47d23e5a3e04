// Package netx holds small HTTP helpers shared by the client side.
package netx

import (
	"io"
	"mime/multipart"
)

// FilePart is one file of a multipart upload.
type FilePart struct {
	Name    string
	Content io.Reader
}

// MultipartBody streams parts as a multipart/form-data body under the form
// field "file". The returned reader must be consumed or closed.
func MultipartBody(parts []FilePart) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		for _, p := range parts {
			w, err := mw.CreateFormFile("file", p.Name)
			if err != nil {
				_ = pw.CloseWithError(err)
				return
			}
			if _, err := io.Copy(w, p.Content); err != nil {
				_ = pw.CloseWithError(err)
				return
			}
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType()
}
