package apperrors

import "errors"

var (
	ErrTableNotFound         = errors.New("table not found")
	ErrColumnNotFound        = errors.New("column not found")
	ErrNoColumns             = errors.New("no selectable columns")
	ErrNoJoinPath            = errors.New("no join path between tables")
	ErrStalePropagation      = errors.New("propagation superseded by a newer selection")
	ErrUnsupportedDatasource = errors.New("unsupported datasource type")
)
