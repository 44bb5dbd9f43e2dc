package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientPreview(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/v1/upload/preview" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			file.Close()
			if header.Filename != "data.csv" {
				t.Errorf("expected filename data.csv, got %q", header.Filename)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"columns":    []string{"pais", "feriado", "fecha"},
				"rows":       []map[string]string{{"pais": "CL"}},
				"total_rows": 3,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", nil)
	preview, err := client.Preview(context.Background(), "data.csv", strings.NewReader("pais,feriado,fecha\n"))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if len(preview.Columns) != 3 || preview.TotalRows != 3 {
		t.Errorf("unexpected preview: %+v", preview)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer token on request, got %q", gotAuth)
	}
}

func TestClientPreviewProcessingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "corrupt file",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	_, err := client.Preview(context.Background(), "data.csv", strings.NewReader("x"))

	var procErr *ProcessingError
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ProcessingError, got %v", err)
	}
	if procErr.Message != "corrupt file" {
		t.Errorf("expected server message, got %q", procErr.Message)
	}
}

func TestClientPreviewTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	_, err := client.Preview(context.Background(), "data.csv", strings.NewReader("x"))

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500 in error, got %d", transportErr.StatusCode)
	}
}

func TestClientTables(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/upload/tables" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"tables": map[string]interface{}{
				"feriados": map[string]interface{}{
					"name":         "feriados",
					"display_name": "Feriados",
					"columns":      []string{"pais", "feriado", "fecha"},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	tables, err := client.Tables(context.Background())
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if tables["feriados"].DisplayName != "Feriados" {
		t.Errorf("unexpected tables: %+v", tables)
	}
}

func TestClientInsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload insertPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload.TableName != "feriados" || len(payload.Data) != 3 {
			t.Errorf("unexpected payload: %+v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"inserted_count": 3,
			"total_count":    3,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	result, err := client.Insert(context.Background(), &insertPayload{
		TableName:     "feriados",
		ColumnMapping: map[string]string{"pais": "pais", "feriado": "feriado", "fecha": "fecha"},
		Data: []map[string]string{
			{"pais": "CL"}, {"pais": "AR"}, {"pais": "PE"},
		},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if result.InsertedCount != 3 {
		t.Errorf("expected 3 inserted, got %d", result.InsertedCount)
	}
}

func TestClientInsertInsertionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Error inserting data: disk full",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)
	_, err := client.Insert(context.Background(), &insertPayload{TableName: "feriados"})

	var insErr *InsertionError
	if !errors.As(err, &insErr) {
		t.Fatalf("expected InsertionError, got %v", err)
	}
	if !strings.Contains(insErr.Message, "disk full") {
		t.Errorf("expected server message, got %q", insErr.Message)
	}
}
