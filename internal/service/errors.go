package service

import (
	"context"
	"errors"
	"fmt"
)

// 业务错误定义，由接口层统一映射为 HTTP 状态码。
var (
	ErrTargetURLRequired  = errors.New("target url required")
	ErrTargetURLInvalid   = errors.New("target url invalid")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInactive      = errors.New("token inactive")
	ErrTokenGeneration    = errors.New("token generation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// wrapStorageError 把存储层的任意失败（含超时）归一为 ErrStorageUnavailable。
// 业务 sentinel 原样透传，绝不吞掉存储失败。
func wrapStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInactive) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
