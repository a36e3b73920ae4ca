package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidRange, "start %s is after end %s", "2024-01-02", "2024-01-01")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidRange, err.Code)
	suite.Equal("start 2024-01-02 is after end 2024-01-01", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeLookupFailed, "token not found", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeLookupFailed, err.Code)
	suite.Equal("token not found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeLookupFailed, cause, "token not found for symbol: %s", "SBIN")
	suite.NotNil(err)
	suite.Equal(ErrCodeLookupFailed, err.Code)
	suite.Equal("token not found for symbol: SBIN", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("i/o timeout")
	err := Wrap(ErrCodeTimeout, "historical data request timed out", cause)
	suite.Equal("[701] historical data request timed out: i/o timeout", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeSinkWrite, "write failed", cause)
	suite.Equal(cause, err.Unwrap())
	suite.Nil(New(ErrCodeInvalidParameter, "invalid parameter").Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeInvalidParameter, GetCode(New(ErrCodeInvalidParameter, "invalid parameter")))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("standard error")))
	suite.Equal(ErrCodeRemoteData, GetCode(NewRemoteDataError("AB1004", "Something Went Wrong", "ONE_MINUTE", "a", "b")))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeMalformedRow, "row 3 has 5 fields")
	err := Wrap(ErrCodeHistoricalDataFailed, "fetch failed", cause)
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeHistoricalDataFailed, GetCode(err))

	fmtWrapped := fmt.Errorf("window 2: %w", cause)
	suite.Equal(ErrCodeMalformedRow, GetCode(fmtWrapped))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeTimeout, "timeout")
	suite.True(HasCode(err, ErrCodeTimeout))
	suite.False(HasCode(err, ErrCodeRemoteData))
}

func (suite *ErrorTestSuite) TestIsAndAs() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeSinkWrite, "write failed", cause)
	suite.True(Is(err, cause))

	var coded *Error
	suite.True(As(err, &coded))
	suite.Equal(ErrCodeSinkWrite, coded.Code)
}

func (suite *ErrorTestSuite) TestIsRecoverable() {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: true},
		{name: "remote data error", err: NewRemoteDataError("AB1004", "no data", "ONE_DAY", "a", "b"), expected: true},
		{name: "wrapped remote data error", err: fmt.Errorf("window: %w", NewRemoteDataError("AB1004", "no data", "ONE_DAY", "a", "b")), expected: true},
		{name: "coded remote data", err: New(ErrCodeRemoteData, "no data"), expected: true},
		{name: "timeout", err: New(ErrCodeTimeout, "timeout"), expected: false},
		{name: "malformed row", err: New(ErrCodeMalformedRow, "missing close"), expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, IsRecoverable(tc.err))
		})
	}
}

func (suite *ErrorTestSuite) TestRemoteDataError() {
	err := NewRemoteDataError("AB1004", "Something Went Wrong, Please Try After Sometime", "FIVE_MINUTE", "2024-01-08 00:00", "2024-01-14 23:59")
	suite.Equal("AB1004", err.ErrorCode)
	suite.Equal("FIVE_MINUTE", err.Granularity)
	suite.Contains(err.Error(), "[702]")
	suite.Contains(err.Error(), "errorcode AB1004")
	suite.True(IsRemoteDataError(fmt.Errorf("wrapped: %w", err)))
	suite.False(IsRemoteDataError(New(ErrCodeTimeout, "timeout")))
	suite.False(IsRemoteDataError(nil))
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(102), ErrCodeInvalidRange)
	suite.Equal(ErrorCode(200), ErrCodeLoginFailed)
	suite.Equal(ErrorCode(201), ErrCodeLookupFailed)
	suite.Equal(ErrorCode(701), ErrCodeTimeout)
	suite.Equal(ErrorCode(704), ErrCodeSinkWrite)
}
