package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrorCategoryInUse  = errors.New("category has transactions and cannot be deleted")
)
