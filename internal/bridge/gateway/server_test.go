package gateway

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	// Dial lazily: no connection is attempted until a request touches the
	// client, which is exactly what these validation-path tests rely on.
	client, err := ethclient.Dial("http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return New(client, common.Address{}, common.Address{}, "0000000000000000000000000000000000000000000000000000000000000001", 1, "", zerolog.Nop())
}

func postStake(t *testing.T, s *Server, body StakeRequest) (int, errorResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", "/stake", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec.Code, resp
}

func TestStakeRejectsNonNumericAmount(t *testing.T) {
	s := newTestServer(t)
	code, resp := postStake(t, s, StakeRequest{Amount: "not-a-number", TargetAddress: "abc"})
	if code != 500 || resp.Success {
		t.Fatalf("expected validation failure, got code=%d resp=%+v", code, resp)
	}
}

func TestStakeRejectsZeroAmount(t *testing.T) {
	s := newTestServer(t)
	code, resp := postStake(t, s, StakeRequest{Amount: "0", TargetAddress: "abc"})
	if code != 500 || resp.Success {
		t.Fatalf("expected validation failure, got code=%d resp=%+v", code, resp)
	}
}

func TestStakeRejectsAmountAboveUint64Max(t *testing.T) {
	s := newTestServer(t)
	code, resp := postStake(t, s, StakeRequest{Amount: "99999999999999999999999999", TargetAddress: "abc"})
	if code != 500 || resp.Success {
		t.Fatalf("expected validation failure, got code=%d resp=%+v", code, resp)
	}
}

func TestStakeRejectsMissingTargetAddress(t *testing.T) {
	s := newTestServer(t)
	code, resp := postStake(t, s, StakeRequest{Amount: "1000", TargetAddress: ""})
	if code != 500 || resp.Success {
		t.Fatalf("expected validation failure, got code=%d resp=%+v", code, resp)
	}
}
