package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clubchain/core"
	"clubchain/native/membership"
	"clubchain/storage"
)

const testToken = "test-rpc-secret"

var (
	adminID  = [20]byte{0x01}
	aliceID  = [20]byte{0x02}
	mallory  = [20]byte{0x03}
	treasury = [20]byte{0x04}
)

func newTestServer(t *testing.T, nowUnix int64) (*Server, *core.Node) {
	t.Helper()
	t.Setenv(authTokenEnv, testToken)
	node := core.NewNode(storage.NewMemDB(), core.WithNowFunc(func() int64 { return nowUnix }))
	t.Cleanup(node.Close)
	return NewServer(node), node
}

func call(t *testing.T, s *Server, token, method string, params interface{}) RPCResponse {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
		"params":  []json.RawMessage{raw},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	var resp RPCResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func mustResult(t *testing.T, resp RPCResponse) map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected RPC error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("result is not an object: %T", resp.Result)
	}
	return result
}

func errorKindOf(t *testing.T, resp RPCResponse) string {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected an RPC error, got result %v", resp.Result)
	}
	data, ok := resp.Error.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("error data is not an object: %+v", resp.Error)
	}
	kind, _ := data["kind"].(string)
	return kind
}

func registerMember(t *testing.T, s *Server, owner [20]byte, role string, authority [20]byte) string {
	t.Helper()
	resp := call(t, s, testToken, "club_registerMember", map[string]interface{}{
		"owner":     formatIdentity(owner),
		"role":      role,
		"authority": formatIdentity(authority),
	})
	result := mustResult(t, resp)
	addr, _ := result["address"].(string)
	if addr == "" {
		t.Fatalf("register returned no address: %v", result)
	}
	return addr
}

func TestMutatingMethodsRequireBearerToken(t *testing.T) {
	s, _ := newTestServer(t, 1_756_000_000)

	resp := call(t, s, "", "club_registerMember", map[string]interface{}{
		"owner":     formatIdentity(adminID),
		"role":      "admin",
		"authority": formatIdentity(adminID),
	})
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp)
	}

	resp = call(t, s, "wrong-token", "club_registerMember", map[string]interface{}{
		"owner":     formatIdentity(adminID),
		"role":      "admin",
		"authority": formatIdentity(adminID),
	})
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp)
	}
}

func TestQueryMethodsAreOpen(t *testing.T) {
	s, node := newTestServer(t, 1_756_000_000)
	if _, err := node.RegisterMember(adminID, membership.RoleAdmin, adminID); err != nil {
		t.Fatalf("register admin: %v", err)
	}

	resp := call(t, s, "", "club_getMember", map[string]interface{}{
		"owner": formatIdentity(adminID),
	})
	result := mustResult(t, resp)
	if result["role"] != "admin" {
		t.Fatalf("expected admin role, got %v", result["role"])
	}
	if result["isActive"] != true {
		t.Fatalf("expected active member, got %v", result)
	}
}

func TestUnknownMethodRejected(t *testing.T) {
	s, _ := newTestServer(t, 1_756_000_000)
	resp := call(t, s, testToken, "club_selfDestruct", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
}

func TestMalformedIdentityRejected(t *testing.T) {
	s, _ := newTestServer(t, 1_756_000_000)
	resp := call(t, s, testToken, "club_registerMember", map[string]interface{}{
		"owner":     "not-a-bech32-string",
		"role":      "member",
		"authority": formatIdentity(adminID),
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid-params, got %+v", resp)
	}
}

func TestCheckInFlow(t *testing.T) {
	start := int64(1_756_063_800) // 2025-08-24 19:30 UTC
	late := start + 1800
	s, _ := newTestServer(t, start-60)

	registerMember(t, s, adminID, "admin", adminID)
	registerMember(t, s, aliceID, "member", adminID)

	resp := call(t, s, testToken, "attendance_initializeSession", map[string]interface{}{
		"date":      "2025-08-24",
		"startTime": start,
		"lateTime":  late,
		"authority": formatIdentity(adminID),
	})
	session := mustResult(t, resp)
	sessionAddr, _ := session["address"].(string)

	resp = call(t, s, testToken, "attendance_checkIn", map[string]interface{}{
		"sessionAddress": sessionAddr,
		"date":           "2025-08-24",
		"caller":         formatIdentity(aliceID),
	})
	record := mustResult(t, resp)
	if record["status"] != "on_time" {
		t.Fatalf("expected on_time status, got %v", record["status"])
	}
	if record["pointsEarned"] != float64(10) {
		t.Fatalf("expected 10 points, got %v", record["pointsEarned"])
	}

	// Second check-in must fail without disturbing the stored record.
	resp = call(t, s, testToken, "attendance_checkIn", map[string]interface{}{
		"sessionAddress": sessionAddr,
		"date":           "2025-08-24",
		"caller":         formatIdentity(aliceID),
	})
	if kind := errorKindOf(t, resp); kind != "already_checked_in" {
		t.Fatalf("expected already_checked_in, got %q", kind)
	}

	resp = call(t, s, "", "attendance_getSession", map[string]interface{}{"date": "2025-08-24"})
	sessionView := mustResult(t, resp)
	if sessionView["totalAttendees"] != float64(1) {
		t.Fatalf("expected one attendee, got %v", sessionView["totalAttendees"])
	}

	resp = call(t, s, "", "club_getBalance", map[string]interface{}{"owner": formatIdentity(aliceID)})
	balance := mustResult(t, resp)
	if balance["balancePts"] != "10" {
		t.Fatalf("expected balance 10, got %v", balance["balancePts"])
	}
}

func TestForgedSessionAddressRejected(t *testing.T) {
	start := int64(1_756_063_800)
	s, _ := newTestServer(t, start-60)

	registerMember(t, s, adminID, "admin", adminID)
	registerMember(t, s, aliceID, "member", adminID)

	resp := call(t, s, testToken, "attendance_initializeSession", map[string]interface{}{
		"date":      "2025-08-24",
		"startTime": start,
		"lateTime":  start + 1800,
		"authority": formatIdentity(adminID),
	})
	mustResult(t, resp)

	forged := "0x" + strings.Repeat("ab", 32)
	resp = call(t, s, testToken, "attendance_checkIn", map[string]interface{}{
		"sessionAddress": forged,
		"date":           "2025-08-24",
		"caller":         formatIdentity(aliceID),
	})
	if kind := errorKindOf(t, resp); kind != "address_mismatch" {
		t.Fatalf("expected address_mismatch, got %q", kind)
	}
}

func TestMarketplaceFlowOverRPC(t *testing.T) {
	start := int64(1_756_063_800)
	s, _ := newTestServer(t, start-60)

	registerMember(t, s, adminID, "admin", adminID)
	registerMember(t, s, aliceID, "member", adminID)
	registerMember(t, s, treasury, "member", adminID)

	// Fund the buyer with an on-time check-in.
	resp := call(t, s, testToken, "attendance_initializeSession", map[string]interface{}{
		"date":      "2025-08-24",
		"startTime": start,
		"lateTime":  start + 1800,
		"authority": formatIdentity(adminID),
	})
	mustResult(t, resp)
	resp = call(t, s, testToken, "attendance_checkIn", map[string]interface{}{
		"date":   "2025-08-24",
		"caller": formatIdentity(aliceID),
	})
	mustResult(t, resp)

	resp = call(t, s, testToken, "marketplace_initialize", map[string]interface{}{
		"admin":        formatIdentity(adminID),
		"paymentAsset": "cpt",
		"treasury":     formatIdentity(treasury),
	})
	market := mustResult(t, resp)

	resp = call(t, s, testToken, "marketplace_addProduct", map[string]interface{}{
		"marketplaceAddress": market["address"],
		"admin":              formatIdentity(adminID),
		"name":               "Club Hoodie",
		"description":        "Embroidered hoodie",
		"price":              "4",
		"stock":              uint64(10),
		"authority":          formatIdentity(adminID),
	})
	product := mustResult(t, resp)
	if product["id"] != float64(0) {
		t.Fatalf("expected first product id 0, got %v", product["id"])
	}

	// Lower the price without touching stock.
	newPrice := "3"
	resp = call(t, s, testToken, "marketplace_updateProduct", map[string]interface{}{
		"admin":     formatIdentity(adminID),
		"productId": uint64(0),
		"price":     &newPrice,
		"authority": formatIdentity(adminID),
	})
	updated := mustResult(t, resp)
	if updated["price"] != "3" {
		t.Fatalf("expected price 3, got %v", updated["price"])
	}
	if updated["stock"] != float64(10) {
		t.Fatalf("stock should be unchanged, got %v", updated["stock"])
	}

	resp = call(t, s, testToken, "marketplace_purchase", map[string]interface{}{
		"admin":     formatIdentity(adminID),
		"productId": uint64(0),
		"buyer":     formatIdentity(aliceID),
		"quantity":  uint64(2),
	})
	receipt := mustResult(t, resp)
	if receipt["totalPrice"] != "6" {
		t.Fatalf("expected total 6, got %v", receipt["totalPrice"])
	}

	resp = call(t, s, "", "club_getBalance", map[string]interface{}{
		"owner": formatIdentity(aliceID),
	})
	account := mustResult(t, resp)
	if account["balancePts"] != "4" {
		t.Fatalf("expected remaining balance 4, got %v", account["balancePts"])
	}
	if account["nonce"] != "1" {
		t.Fatalf("expected spend nonce 1, got %v", account["nonce"])
	}

	// A second purchase of the same size exceeds the remaining balance.
	resp = call(t, s, testToken, "marketplace_purchase", map[string]interface{}{
		"admin":     formatIdentity(adminID),
		"productId": uint64(0),
		"buyer":     formatIdentity(aliceID),
		"quantity":  uint64(2),
	})
	if kind := errorKindOf(t, resp); kind != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %q", kind)
	}

	resp = call(t, s, "", "marketplace_getPurchase", map[string]interface{}{
		"buyer": formatIdentity(aliceID),
		"index": uint64(0),
	})
	stored := mustResult(t, resp)
	if stored["quantity"] != float64(2) {
		t.Fatalf("expected stored quantity 2, got %v", stored["quantity"])
	}
}

func TestUnregisteredBuyerCannotPurchase(t *testing.T) {
	s, _ := newTestServer(t, 1_756_000_000)

	registerMember(t, s, adminID, "admin", adminID)
	registerMember(t, s, treasury, "member", adminID)

	resp := call(t, s, testToken, "marketplace_initialize", map[string]interface{}{
		"admin":        formatIdentity(adminID),
		"paymentAsset": "CPT",
		"treasury":     formatIdentity(treasury),
	})
	mustResult(t, resp)
	resp = call(t, s, testToken, "marketplace_addProduct", map[string]interface{}{
		"admin":     formatIdentity(adminID),
		"name":      "Sticker Pack",
		"price":     "1",
		"stock":     uint64(10),
		"authority": formatIdentity(adminID),
	})
	mustResult(t, resp)

	resp = call(t, s, testToken, "marketplace_purchase", map[string]interface{}{
		"admin":     formatIdentity(adminID),
		"productId": uint64(0),
		"buyer":     formatIdentity(mallory),
		"quantity":  uint64(1),
	})
	if kind := errorKindOf(t, resp); kind != "insufficient_balance" {
		t.Fatalf("expected insufficient_balance, got %q", kind)
	}
}
