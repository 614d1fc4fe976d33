package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrMissingInput = errors.New("required input missing")
	ErrEmptyDataset = errors.New("dataset is empty")
)
