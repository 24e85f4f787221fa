package plans

import (
	"reflect"
	"testing"
)

func TestNormalizePlanTypes(t *testing.T) {
	cases := []struct {
		name string
		raw  interface{}
		want []string
	}{
		{"string all expands", "all", AllPlanTypes},
		{"single string lowered", "Physical", []string{"physical"}},
		{"string list lowered", []string{"PHYSICAL", "Nutritional"}, []string{"physical", "nutritional"}},
		{"json decoded list", []interface{}{"Emotional", "spiritual"}, []string{"emotional", "spiritual"}},
		{"nil expands to all", nil, AllPlanTypes},
		{"number expands to all", 42, AllPlanTypes},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizePlanTypes(tc.raw); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("NormalizePlanTypes(%v) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestFilterValidPlanTypes(t *testing.T) {
	got := FilterValidPlanTypes([]string{"physical", "bogus", "spiritual"})
	want := []string{"physical", "spiritual"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterValidPlanTypes = %v, want %v", got, want)
	}

	if got := FilterValidPlanTypes([]string{"bogus"}); !reflect.DeepEqual(got, AllPlanTypes) {
		t.Errorf("all-invalid input must fall back to every pillar, got %v", got)
	}

	if got := FilterValidPlanTypes(nil); !reflect.DeepEqual(got, AllPlanTypes) {
		t.Errorf("empty input must fall back to every pillar, got %v", got)
	}
}

func TestFormatResultLabel(t *testing.T) {
	cases := []struct {
		types []string
		want  string
	}{
		{AllPlanTypes, "todos os seus planos"},
		{[]string{"physical"}, "o plano physical"},
		{[]string{"physical", "nutritional"}, "os planos physical, nutritional"},
	}

	for _, tc := range cases {
		if got := FormatResultLabel(tc.types); got != tc.want {
			t.Errorf("FormatResultLabel(%v) = %q, want %q", tc.types, got, tc.want)
		}
	}
}

func TestPlanTypesFromMessage(t *testing.T) {
	cases := []struct {
		message string
		want    []string
	}{
		{"quero mudar meu treino", []string{"physical"}},
		{"ajusta minha dieta e meu cardápio", []string{"nutritional"}},
		{"refaz meu plano", AllPlanTypes},
		{"mudar treino e dieta", []string{"physical", "nutritional"}},
	}

	for _, tc := range cases {
		if got := PlanTypesFromMessage(tc.message); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("PlanTypesFromMessage(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}
