package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"clipstream/internal/models"
	"github.com/google/uuid"
)

type uploadedFile struct {
	data        []byte
	filename    string
	contentType string
}

type multipartForm struct {
	fields map[string]string
	files  map[string]*uploadedFile
}

func (f *multipartForm) value(name string) string {
	return f.fields[name]
}

func (f *multipartForm) file(name string) *uploadedFile {
	return f.files[name]
}

// parseMultipartForm streams every part of the request, keeping text fields
// and the first file seen under each field name. File parts beyond the
// configured size cap abort the request.
func (h *Handler) parseMultipartForm(r *http.Request) (*multipartForm, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, badRequest("invalid multipart payload")
	}
	form := &multipartForm{
		fields: make(map[string]string),
		files:  make(map[string]*uploadedFile),
	}
	limit := h.maxUploadBytes()
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, badRequest("read multipart data")
		}
		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}
		if part.FileName() != "" {
			if _, seen := form.files[name]; seen {
				_ = part.Close()
				continue
			}
			data, readErr := io.ReadAll(io.LimitReader(part, limit+1))
			_ = part.Close()
			if readErr != nil {
				return nil, badRequest("read uploaded file")
			}
			if int64(len(data)) > limit {
				return nil, badRequest(fmt.Sprintf("file %s exceeds the %d byte limit", name, limit))
			}
			if len(data) == 0 {
				continue
			}
			form.files[name] = &uploadedFile{
				data:        data,
				filename:    part.FileName(),
				contentType: part.Header.Get("Content-Type"),
			}
			continue
		}
		payload, readErr := io.ReadAll(part)
		_ = part.Close()
		if readErr != nil {
			return nil, badRequest("read form field")
		}
		form.fields[name] = strings.TrimSpace(string(payload))
	}
	return form, nil
}

// uploadAsset stores the file under a fresh key in the given folder and
// returns the persisted reference.
func (h *Handler) uploadAsset(ctx context.Context, folder string, file *uploadedFile) (models.ImageRef, error) {
	if file == nil {
		return models.ImageRef{}, nil
	}
	key := folder + "/" + uuid.NewString()
	if ext := path.Ext(file.filename); ext != "" {
		key += strings.ToLower(ext)
	}
	contentType := file.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.recorder().ObserveAssetOperation("upload")
	ref, err := h.assetClient().Upload(ctx, key, contentType, file.data)
	if err != nil {
		h.recorder().ObserveAssetFailure("upload")
		return models.ImageRef{}, err
	}
	return models.ImageRef{Key: ref.Key, URL: ref.URL}, nil
}

// deleteAsset removes a superseded object, tolerating failures: a stale
// object is preferable to failing the request that replaced it.
func (h *Handler) deleteAsset(ctx context.Context, ref models.ImageRef) {
	if ref.Key == "" {
		return
	}
	h.recorder().ObserveAssetOperation("delete")
	if err := h.assetClient().Delete(ctx, ref.Key); err != nil {
		h.recorder().ObserveAssetFailure("delete")
	}
}
