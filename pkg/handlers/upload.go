package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/botslatam/admin-engine/pkg/apperrors"
	"github.com/botslatam/admin-engine/pkg/auth"
	"github.com/botslatam/admin-engine/pkg/models"
	"github.com/botslatam/admin-engine/pkg/services"
)

// TablesResponse is the body of GET /api/v1/upload/tables.
type TablesResponse struct {
	Success bool                              `json:"success"`
	Tables  map[string]models.TableDescriptor `json:"tables"`
	Message string                            `json:"message,omitempty"`
}

// PreviewResponse is the body of POST /api/v1/upload/preview.
// Processing failures are reported with success=false and an HTTP 200 so
// clients can distinguish them from transport failures.
type PreviewResponse struct {
	Success bool                `json:"success"`
	Data    *models.PreviewData `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
}

// CreateTableResponse is the body of POST /api/v1/upload/create-table.
type CreateTableResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
	TableName string   `json:"table_name,omitempty"`
	Columns   []string `json:"columns,omitempty"`
}

// UploadHandler handles the file-ingestion endpoints.
type UploadHandler struct {
	uploadService services.UploadService
	maxFileSize   int64
	logger        *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(uploadService services.UploadService, maxFileSize int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxFileSize:   maxFileSize,
		logger:        logger,
	}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/v1/upload/tables", authMiddleware.RequireAuth(h.Tables))
	mux.HandleFunc("POST /api/v1/upload/preview", authMiddleware.RequireAuth(h.Preview))
	mux.HandleFunc("POST /api/v1/upload/insert", authMiddleware.RequireAuth(h.Insert))
	mux.HandleFunc("POST /api/v1/upload/create-table", authMiddleware.RequireAuth(h.CreateTable))
}

// Tables handles GET /api/v1/upload/tables
// Returns the catalog of available destination tables.
func (h *UploadHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.uploadService.Tables(r.Context())
	if err != nil {
		h.logger.Error("Failed to get tables", zap.Error(err))
		if err := WriteJSON(w, http.StatusOK, TablesResponse{
			Success: false,
			Tables:  map[string]models.TableDescriptor{},
			Message: "Failed to get tables",
		}); err != nil {
			h.logger.Error("Failed to encode tables response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, TablesResponse{Success: true, Tables: tables}); err != nil {
		h.logger.Error("Failed to encode tables response", zap.Error(err))
	}
}

// Preview handles POST /api/v1/upload/preview
// Accepts a multipart file and returns a bounded preview of its content.
func (h *UploadHandler) Preview(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.formFile(w, r)
	if err != nil {
		return // response already written
	}
	defer file.Close()

	preview, err := h.uploadService.Preview(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidFileType):
			err = ErrorResponse(w, http.StatusBadRequest, "invalid_file_type", apperrors.ErrInvalidFileType.Error())
		case errors.Is(err, apperrors.ErrFileTooLarge):
			err = ErrorResponse(w, http.StatusBadRequest, "file_too_large", apperrors.ErrFileTooLarge.Error())
		default:
			h.logger.Error("Failed to process file",
				zap.String("filename", header.Filename),
				zap.Error(err))
			err = WriteJSON(w, http.StatusOK, PreviewResponse{
				Success: false,
				Message: "Error processing file: " + err.Error(),
			})
		}
		if err != nil {
			h.logger.Error("Failed to write preview response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, PreviewResponse{Success: true, Data: preview}); err != nil {
		h.logger.Error("Failed to encode preview response", zap.Error(err))
	}
}

// Insert handles POST /api/v1/upload/insert
// Performs one ingestion submission described by a JSON body.
func (h *UploadHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var req services.InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.uploadService.Insert(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			err = ErrorResponse(w, http.StatusNotFound, "table_not_found", "Destination table not found")
		case errors.Is(err, apperrors.ErrInvalidTableName):
			err = ErrorResponse(w, http.StatusBadRequest, "invalid_table_name", apperrors.ErrInvalidTableName.Error())
		case errors.Is(err, apperrors.ErrTableExists):
			err = ErrorResponse(w, http.StatusBadRequest, "table_exists", apperrors.ErrTableExists.Error())
		default:
			h.logger.Error("Failed to insert data", zap.String("table", req.TableName), zap.Error(err))
			err = WriteJSON(w, http.StatusOK, models.IngestionResult{
				Success:      false,
				Message:      "Error inserting data: " + err.Error(),
				SkippedCount: len(req.Data),
				TotalCount:   len(req.Data),
				Errors:       []string{err.Error()},
			})
		}
		if err != nil {
			h.logger.Error("Failed to write insert response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode insert response", zap.Error(err))
	}
}

// CreateTable handles POST /api/v1/upload/create-table
// Creates a new table from a multipart file's header with inferred types.
func (h *UploadHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	file, header, err := h.formFile(w, r)
	if err != nil {
		return // response already written
	}
	defer file.Close()

	tableName := r.FormValue("table_name")
	displayName := r.FormValue("display_name")
	description := r.FormValue("description")
	if tableName == "" || displayName == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "table_name and display_name are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	desc, err := h.uploadService.CreateTable(r.Context(), header.Filename, file, tableName, displayName, description)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidTableName):
			err = ErrorResponse(w, http.StatusBadRequest, "invalid_table_name", apperrors.ErrInvalidTableName.Error())
		case errors.Is(err, apperrors.ErrTableExists):
			err = ErrorResponse(w, http.StatusBadRequest, "table_exists", apperrors.ErrTableExists.Error())
		case errors.Is(err, apperrors.ErrInvalidFileType):
			err = ErrorResponse(w, http.StatusBadRequest, "invalid_file_type", apperrors.ErrInvalidFileType.Error())
		default:
			h.logger.Error("Failed to create table", zap.String("table", tableName), zap.Error(err))
			err = ErrorResponse(w, http.StatusInternalServerError, "create_table_failed", "Failed to create table")
		}
		if err != nil {
			h.logger.Error("Failed to write create-table response", zap.Error(err))
		}
		return
	}

	response := CreateTableResponse{
		Success:   true,
		Message:   "Table '" + desc.Name + "' created successfully",
		TableName: desc.Name,
		Columns:   desc.Columns,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode create-table response", zap.Error(err))
	}
}

// formFile extracts the "file" part of a multipart request, enforcing the
// configured size ceiling. On failure the error response is already written.
func (h *UploadHandler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+formOverhead)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		code, errCode, msg := http.StatusBadRequest, "invalid_multipart", "Invalid multipart request"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errCode, msg = "file_too_large", apperrors.ErrFileTooLarge.Error()
		}
		if err := ErrorResponse(w, code, errCode, msg); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "A file part named 'file' is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, nil, err
	}
	return file, header, nil
}

// formOverhead leaves room for the non-file parts of a multipart body.
const formOverhead = 64 * 1024
