package mongo

import (
	"context"
	"strings"
	"testing"
)

func TestConnect_InvalidURI(t *testing.T) {
	_, _, err := Connect(context.Background(), Config{URI: "not-a-mongo-uri", Database: "parcel_tracker"})
	if err == nil {
		t.Fatal("expected an error for an invalid URI")
	}
	if !strings.HasPrefix(err.Error(), "mongo connect:") {
		t.Errorf("unexpected error: %v", err)
	}
}
