package models

import (
	"errors"
	"testing"
)

func TestValue(t *testing.T) {
	o := Observation{AQI: 1, PM25: 2, PM10: 3, NO2: 4, SO2: 5, CO: 6, O3: 7, Temperature: 8, Humidity: 9, WindSpeed: 10}

	tests := []struct {
		field string
		want  float64
	}{
		{FieldAQI, 1},
		{FieldPM25, 2},
		{FieldO3, 7},
		{FieldWindSpeed, 10},
	}
	for _, tt := range tests {
		got, err := Value(o, tt.field)
		if err != nil {
			t.Fatalf("Value(%q): %v", tt.field, err)
		}
		if got != tt.want {
			t.Errorf("Value(%q) = %v, want %v", tt.field, got, tt.want)
		}
	}

	if _, err := Value(o, "Lead (ppb)"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Value(unknown) err = %v, want ErrUnknownField", err)
	}
}

func TestColumn_UnknownField(t *testing.T) {
	rows := []Observation{{AQI: 1}, {AQI: 2}}
	if _, err := Column(rows, "nope"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}

	col, err := Column(rows, FieldAQI)
	if err != nil {
		t.Fatal(err)
	}
	if len(col) != 2 || col[0] != 1 || col[1] != 2 {
		t.Errorf("Column = %v, want [1 2]", col)
	}
}

func TestNumericFields(t *testing.T) {
	fields := NumericFields()
	if len(fields) != 10 {
		t.Fatalf("len = %d, want 10", len(fields))
	}
	if fields[0] != FieldAQI {
		t.Errorf("fields[0] = %q, want AQI first", fields[0])
	}
	for _, f := range fields[1:7] {
		if !IsPollutant(f) {
			t.Errorf("field %q should be a pollutant", f)
		}
	}
	if IsPollutant(FieldTemperature) {
		t.Error("Temperature is not a pollutant")
	}
}

func TestPollutants_ReturnsCopy(t *testing.T) {
	a := Pollutants()
	a[0] = "mutated"
	if b := Pollutants(); b[0] == "mutated" {
		t.Error("Pollutants exposed internal slice")
	}
}
