package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type issueKeyResponse struct {
	KeyID uuid.UUID `json:"keyId"`
	Key   string    `json:"key"`
}

type verifyKeyResponse struct {
	BucketID uuid.UUID `json:"bucketId"`
}

type uploadKeyResponse struct {
	UploadID uuid.UUID `json:"uploadId"`
}

func (s *Server) issueKey(c *gin.Context) {
	issued, err := s.keys.Issue(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issueKeyResponse{KeyID: issued.KeyID, Key: issued.Secret})
}

func (s *Server) verifyKey(c *gin.Context) {
	c.JSON(http.StatusOK, verifyKeyResponse{BucketID: bucketID(c)})
}

func (s *Server) issueUploadKey(c *gin.Context) {
	id, err := s.uploads.Issue(c.Request.Context(), bucketID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadKeyResponse{UploadID: id})
}

// upload stores every part of a multipart body that carries a filename and
// answers with the blob ids in part order. Parts without a filename are
// skipped.
func (s *Server) upload(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}

	mr, err := c.Request.MultipartReader()
	if err != nil {
		s.fail(c, apperr.ErrMalformedUpload)
		return
	}

	bucket := bucketID(c)
	ids := make([]uuid.UUID, 0, 1)

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.fail(c, uploadError(err))
			return
		}

		id, ok, err := s.storePart(c, bucket, part)
		_ = part.Close()
		if err != nil {
			s.fail(c, err)
			return
		}
		if ok {
			ids = append(ids, id)
		}
	}

	c.JSON(http.StatusOK, ids)
}

func (s *Server) storePart(c *gin.Context, bucket uuid.UUID, part *multipart.Part) (uuid.UUID, bool, error) {
	filename := part.FileName()
	if filename == "" {
		return uuid.Nil, false, nil
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return uuid.Nil, false, uploadError(err)
	}

	id, err := s.files.Upload(c.Request.Context(), bucket, filename, data)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.ErrMalformedUpload.WithStatus(http.StatusRequestEntityTooLarge)
	}
	return apperr.ErrMalformedUpload
}

func fileID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		return uuid.Nil, apperr.InvalidID("fileId")
	}
	return id, nil
}

func (s *Server) download(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	d, err := s.files.Open(c.Request.Context(), bucketID(c), id)
	if err != nil {
		if errors.Is(err, apperr.ErrBindingNotFound) {
			err = apperr.ErrBindingNotFound.WithStatus(http.StatusNoContent)
		}
		s.fail(c, err)
		return
	}
	defer d.Close()

	h := c.Writer.Header()
	h.Set("Content-Length", strconv.FormatInt(d.Size, 10))
	if ct := d.ContentType(); ct != "" {
		h.Set("Content-Type", ct)
	} else {
		// keep net/http from sniffing one
		h["Content-Type"] = nil
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, d); err != nil {
		s.logger.Warn(c.Request.Context(), "download interrupted", "file_id", id, "error", err)
	}
}

func (s *Server) delete(c *gin.Context) {
	id, err := fileID(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := s.files.Delete(c.Request.Context(), bucketID(c), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}
