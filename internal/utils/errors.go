package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidShop        = errors.New("INVALID_SHOP")
	ErrInvalidSignature   = errors.New("INVALID_SIGNATURE")
	ErrShopNotFound       = errors.New("SHOP_NOT_FOUND")
	ErrTemplateNotFound   = errors.New("TEMPLATE_NOT_FOUND")
	ErrTemplateInvalid    = errors.New("TEMPLATE_INVALID")
	ErrNoMatchingTemplate = errors.New("NO_MATCHING_TEMPLATE")
	ErrDuplicateName      = errors.New("DUPLICATE_NAME")
	ErrUploadTooLarge     = errors.New("UPLOAD_TOO_LARGE")
	ErrUploadType         = errors.New("UNSUPPORTED_UPLOAD_TYPE")
)
