package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeServiceBooking(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantService Ref
		wantStatus  Status
		wantDate    string
	}{
		{
			name:        "service_id",
			raw:         `{"_id":"b1","client_name":"Ana","client_email":"ana@x.io","client_phone":"+15550100","date":"2025-03-01T00:00:00.000Z","time":"09:00","service":"s1"}`,
			wantService: Ref{ID: "s1"},
			wantDate:    "2025-03-01",
		},
		{
			name:        "populated_service",
			raw:         `{"_id":"b2","client_name":"Ben","date":"2025-03-02","time":"10:00","status":"approve","service":{"_id":"s2","service_name":"Vinyasa"}}`,
			wantService: Ref{ID: "s2", Name: "Vinyasa"},
			wantStatus:  StatusApprove,
			wantDate:    "2025-03-02",
		},
		{
			name:     "null_service",
			raw:      `{"_id":"b3","client_name":"Cy","date":"2025-03-03","time":"11:00","service":null}`,
			wantDate: "2025-03-03",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, err := DecodeServiceBooking(json.RawMessage(test.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b.Kind != KindService {
				t.Fatalf("kind = %q", b.Kind)
			}
			if b.Service != test.wantService {
				t.Fatalf("service = %+v, want %+v", b.Service, test.wantService)
			}
			if b.Status != test.wantStatus {
				t.Fatalf("status = %q, want %q", b.Status, test.wantStatus)
			}
			if b.Date != test.wantDate {
				t.Fatalf("date = %q, want %q", b.Date, test.wantDate)
			}
		})
	}
}

func TestDecodeClassBooking(t *testing.T) {
	raw := `{
		"_id": "c1",
		"clientDetails": {"name": "Dee", "email": "dee@x.io", "phone": "555", "smsReminder": true},
		"schedule": {
			"_id": "sch1",
			"date": "2025-04-10T00:00:00.000Z",
			"start_time": "07:00",
			"end_time": "08:00",
			"timezone": "IST",
			"service": {"_id": "s1", "service_name": "Hatha"},
			"instructor": {"_id": "i1", "name": "Priya"}
		},
		"status": "complete"
	}`
	b, err := DecodeClassBooking(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Kind != KindClass || b.ID != "c1" {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if !b.Client.SMSReminder || b.Client.Name != "Dee" {
		t.Fatalf("client = %+v", b.Client)
	}
	if b.Schedule.ID != "sch1" || b.Instructor.Name != "Priya" || b.ServiceName() != "Hatha" {
		t.Fatalf("refs = %+v %+v %+v", b.Schedule, b.Instructor, b.Service)
	}
	if got := b.TimeLabel(); got != "07:00 - 08:00" {
		t.Fatalf("time label = %q", got)
	}
	if b.Date != "2025-04-10" {
		t.Fatalf("date = %q", b.Date)
	}
}

func TestDecodeClassBookingScheduleID(t *testing.T) {
	b, err := DecodeClassBooking(json.RawMessage(`{"_id":"c2","clientDetails":{"name":"Eve"},"schedule":"sch9"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Schedule.ID != "sch9" {
		t.Fatalf("schedule = %+v", b.Schedule)
	}
	if b.ServiceName() != "No Service" {
		t.Fatalf("service name fallback = %q", b.ServiceName())
	}
}

func TestEncodeBookingUsesVariantShape(t *testing.T) {
	service := Booking{
		ID:      "b1",
		Kind:    KindService,
		Client:  ClientDetails{Name: "Ana", Email: "ana@x.io", Phone: "1"},
		Service: Ref{ID: "s1", Name: "Vinyasa"},
		Date:    "2025-03-01",
		Time:    "09:00",
	}
	body, err := EncodeBooking(service)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, _ := json.Marshal(body)
	text := string(data)
	for _, want := range []string{`"client_name":"Ana"`, `"service":"s1"`, `"time":"09:00"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("service payload %s missing %s", text, want)
		}
	}
	if strings.Contains(text, "_id") || strings.Contains(text, "status") {
		t.Fatalf("service payload leaked id or empty status: %s", text)
	}

	class := Booking{
		Kind:      KindClass,
		Client:    ClientDetails{Name: "Dee", SMSReminder: true},
		Schedule:  Ref{ID: "sch1"},
		Date:      "2025-04-10",
		StartTime: "07:00",
		EndTime:   "08:00",
	}
	body, err = EncodeBooking(class)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data, _ = json.Marshal(body)
	text = string(data)
	for _, want := range []string{`"clientDetails":{`, `"smsReminder":true`, `"schedule":{"_id":"sch1"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("class payload %s missing %s", text, want)
		}
	}

	if _, err := EncodeBooking(Booking{Kind: "walk-in"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
