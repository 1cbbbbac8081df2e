package telemetry

import "codeberg.org/treska/revmon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	// Collection Errors
	ErrRecordFailed    = errors.ErrorCode("telemetry_record_failed")
	ErrInvalidSnapshot = errors.ErrorCode("telemetry_invalid_snapshot")

	// Storage Errors
	ErrStorageInit      = errors.ErrorCode("telemetry_storage_init_failed")
	ErrStorageAccess    = errors.ErrorCode("telemetry_storage_access_failed")
	ErrStorageClose     = errors.ErrorCode("telemetry_storage_close_failed")
	ErrSchemaInitFailed = errors.ErrorCode("telemetry_schema_init_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrorCode("telemetry_operation_timeout")
	ErrServiceShutdown  = errors.ErrorCode("telemetry_service_shutdown_failed")
)
