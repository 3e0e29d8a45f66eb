package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	line := `{"id":"r1","method":"stream_push","params":{"session_id":"s1","format":"pcm_s16le_b64"}}`
	req, err := ParseRequest([]byte(line))
	if err != nil {
		t.Fatalf("ParseRequest() failed: %v", err)
	}
	if req.ID != "r1" || req.Method != "stream_push" {
		t.Errorf("Unexpected envelope: %+v", req)
	}
	if req.Params["session_id"] != "s1" {
		t.Errorf("Expected session_id 's1', got '%s'", req.Params["session_id"])
	}
}

func TestParseRequest_Malformed(t *testing.T) {
	if _, err := ParseRequest([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed line")
	}
}

func TestParseRequest_NilParams(t *testing.T) {
	req, err := ParseRequest([]byte(`{"id":"r1","method":"ping"}`))
	if err != nil {
		t.Fatalf("ParseRequest() failed: %v", err)
	}
	if req.Params == nil {
		t.Error("Expected non-nil params map")
	}
}

func TestParams_Int(t *testing.T) {
	p := Params{"partial_interval_ms": "250", "bad": "abc"}

	n, err := p.Int("partial_interval_ms", 500)
	if err != nil || n != 250 {
		t.Errorf("Expected 250, got %d (err %v)", n, err)
	}

	n, err = p.Int("missing", 500)
	if err != nil || n != 500 {
		t.Errorf("Expected default 500, got %d (err %v)", n, err)
	}

	if _, err := p.Int("bad", 0); err == nil {
		t.Error("Expected error for unparsable integer")
	}
}

func TestParams_Bool(t *testing.T) {
	p := Params{"a": "true", "b": "1", "c": "ON", "d": "no", "e": "false"}
	for _, key := range []string{"a", "b", "c"} {
		if !p.Bool(key, false) {
			t.Errorf("Expected %s to parse true", key)
		}
	}
	for _, key := range []string{"d", "e"} {
		if p.Bool(key, true) {
			t.Errorf("Expected %s to parse false", key)
		}
	}
	if !p.Bool("missing", true) {
		t.Error("Expected default true for missing key")
	}
}

func TestParams_Require(t *testing.T) {
	p := Params{"session_id": "s1", "empty": ""}
	if v, err := p.Require("session_id"); err != nil || v != "s1" {
		t.Errorf("Require(session_id) = %q, %v", v, err)
	}
	if _, err := p.Require("empty"); err == nil {
		t.Error("Expected error for empty required parameter")
	}
	if _, err := p.Require("missing"); err == nil {
		t.Error("Expected error for missing required parameter")
	}
}

func TestResponse_Marshal(t *testing.T) {
	data, err := json.Marshal(OK("r1", PingResult{Message: "alive", Time: "1"}))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"ok":true`) || !strings.Contains(s, `"error":null`) {
		t.Errorf("Unexpected success shape: %s", s)
	}

	data, err = json.Marshal(Err("r2", "boom"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s = string(data)
	if !strings.Contains(s, `"ok":false`) || !strings.Contains(s, `"error":"boom"`) ||
		!strings.Contains(s, `"result":null`) {
		t.Errorf("Unexpected error shape: %s", s)
	}
}

func TestComposeActions(t *testing.T) {
	final := []Action{Insert("\n")}

	partial := ComposeActions(KindPartial, "你好", final)
	if len(partial) != 1 || partial[0].Type != ActionSetComposition || partial[0].Text != "你好" {
		t.Errorf("Expected single set_composition action, got %+v", partial)
	}

	passed := ComposeActions(KindFinal, "whatever", final)
	if len(passed) != 1 || passed[0].Type != ActionInsert {
		t.Errorf("Expected final actions passed through, got %+v", passed)
	}
}
