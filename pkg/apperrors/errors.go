package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials or 2FA code")
	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidFileType    = errors.New("only Excel (.xlsx, .xls) or CSV (.csv) files are allowed")
	ErrFileTooLarge       = errors.New("file exceeds the 10MB limit")
	ErrInvalidTableName   = errors.New("invalid table name")
	ErrInvalidDataType    = errors.New("unsupported column data type")
	ErrTableExists        = errors.New("table already exists")
)
