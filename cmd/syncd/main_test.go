package main

import (
	"reflect"
	"testing"

	"github.com/shoesync/backend/internal/usecase"
)

func TestStepsFromArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []usecase.Step
		wantErr bool
	}{
		{"no args runs everything", nil, usecase.AllSteps, false},
		{"single step", []string{"prices"}, []usecase.Step{usecase.StepPrices}, false},
		{"several steps", []string{"products", "instock"}, []usecase.Step{usecase.StepProducts, usecase.StepInstock}, false},
		{"unknown step", []string{"discounts"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stepsFromArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("stepsFromArgs(%v) error = nil, want error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("stepsFromArgs(%v) error = %v", tt.args, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("stepsFromArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
