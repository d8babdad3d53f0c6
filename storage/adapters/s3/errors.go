package s3

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
	"github.com/bignyap/s3filestore/storage/api"
)

// classify maps an SDK error onto the storage error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return api.ErrNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return api.ErrAccessDenied
		case "InvalidRange":
			return api.ErrInvalidRef
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return api.ErrNotFound
		case http.StatusForbidden:
			return api.ErrAccessDenied
		case http.StatusRequestedRangeNotSatisfiable:
			return api.ErrInvalidRef
		}
	}

	return api.ErrStoreUnavailable
}

// totalFromContentRange extracts the complete length from a header such as
// "bytes 50-99/100".
func totalFromContentRange(header string) (int64, bool) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, false
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}
