package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"DocPlatform/internal/cli/api"
	"DocPlatform/internal/cli/model"
)

var (
	ErrNotZip          = errors.New("only .zip archives are supported")
	ErrCompanyRequired = errors.New("company id is required")
)

// DocumentService загружает архивы документов компании.
type DocumentService interface {
	UploadZip(ctx context.Context, companyID, filename string, r io.Reader) (model.UploadResult, error)
}

type documentService struct {
	api APIClient
}

func NewDocumentService(client APIClient) DocumentService {
	return &documentService{api: client}
}

func (s *documentService) UploadZip(ctx context.Context, companyID, filename string, r io.Reader) (model.UploadResult, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return model.UploadResult{}, ErrCompanyRequired
	}
	name := filepath.Base(filename)
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		return model.UploadResult{}, ErrNotZip
	}

	form := api.NewMultipart().
		AddField("company", companyID).
		AddField("company_id", companyID)
	if err := form.AddFile("file", name, r); err != nil {
		return model.UploadResult{}, err
	}

	var res model.UploadResult
	if err := s.api.PostForm(ctx, "/upload-zip/", form, &res); err != nil {
		return model.UploadResult{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return res, nil
}
