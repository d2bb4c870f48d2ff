// Package statuscheck reports whether the optional services a run can use
// are reachable before any page is rendered.
package statuscheck

import (
	"context"
	"errors"
	"time"
)

// Pinger is implemented by store.RedisStatus.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker is implemented by storage.S3Client.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// BinaryChecker is implemented by converter.LibreOffice.
type BinaryChecker interface {
	Available() bool
}

// Status represents the readiness of a subsystem.
type Status struct {
	Configured bool   `json:"configured"`
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis       Status `json:"redis"`
	S3          Status `json:"s3"`
	LibreOffice Status `json:"libreoffice"`
}

// Ready reports whether every configured subsystem is usable.
func (s Summary) Ready() bool {
	for _, st := range []Status{s.Redis, s.S3, s.LibreOffice} {
		if st.Configured && !st.OK {
			return false
		}
	}
	return true
}

// Checker runs the checks. Nil members are reported as not configured.
type Checker struct {
	Redis       Pinger
	S3          BucketChecker
	LibreOffice BinaryChecker
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:       c.checkRedis(ctx),
		S3:          c.checkS3(ctx),
		LibreOffice: c.checkLibreOffice(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.Redis == nil {
		return Status{Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Redis.Ping(ctx); err != nil {
		return Status{Configured: true, Message: trimError(err)}
	}
	return Status{Configured: true, OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.S3 == nil {
		return Status{Message: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.S3.HeadBucket(ctx); err != nil {
		return Status{Configured: true, Message: trimError(err)}
	}
	return Status{Configured: true, OK: true, Message: "Connected"}
}

func (c *Checker) checkLibreOffice() Status {
	if c.LibreOffice == nil {
		return Status{Message: "conversion disabled"}
	}
	if !c.LibreOffice.Available() {
		return Status{Configured: true, Message: "Binary not found"}
	}
	return Status{Configured: true, OK: true, Message: "Available"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
