// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package validation

import (
	"strings"
	"testing"
)

type rankRequest struct {
	User  string `validate:"required,username"`
	Group string `validate:"required,oneof=followers following both"`
	TopN  int    `validate:"gte=0,lte=100"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		req     rankRequest
		wantTag string
	}{
		{"valid", rankRequest{User: "dave_99", Group: "both"}, ""},
		{"missing user", rankRequest{Group: "both"}, "required"},
		{"path characters", rankRequest{User: "../etc", Group: "both"}, "username"},
		{"space", rankRequest{User: "da ve", Group: "both"}, "username"},
		{"bad group", rankRequest{User: "dave", Group: "friends"}, "oneof"},
		{"top n too large", rankRequest{User: "dave", Group: "both", TopN: 101}, "lte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if tt.wantTag == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := verr.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	verr := ValidateStruct(&rankRequest{User: "dave", Group: "friends"})
	if verr == nil {
		t.Fatal("expected error")
	}
	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "Group must be one of: followers following both" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "Group" || apiErr.Details["value"] != "friends" {
		t.Errorf("Details = %v", apiErr.Details)
	}

	multi := ValidateStruct(&rankRequest{}).ToAPIError()
	if !strings.Contains(multi.Message, "User: User is required") || !strings.Contains(multi.Message, "Group: Group is required") {
		t.Errorf("Message = %q", multi.Message)
	}
	if fields, ok := multi.Details["fields"].([]map[string]interface{}); !ok || len(fields) != 2 {
		t.Errorf("Details = %v", multi.Details)
	}
}
