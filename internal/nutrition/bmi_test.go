package nutrition_test

import (
	"math"
	"strings"
	"testing"

	"github.com/nutrichat/nutrichat/internal/nutrition"
)

func TestBMI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		weightKg float64
		heightCm float64
		expected float64
	}{
		{
			name:     "just above underweight boundary",
			weightKg: 56.7,
			heightCm: 175,
			expected: 18.51,
		},
		{
			name:     "two meters one hundred kilos",
			weightKg: 100,
			heightCm: 200,
			expected: 25.0,
		},
		{
			name:     "light short profile",
			weightKg: 45,
			heightCm: 150,
			expected: 20.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := nutrition.BMI(tt.weightKg, tt.heightCm)
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("BMI(%v, %v) = %v, want %v", tt.weightKg, tt.heightCm, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bmi      float64
		expected nutrition.Category
	}{
		{name: "well under", bmi: 16.0, expected: nutrition.CategoryUnderweight},
		{name: "just under lower boundary", bmi: 18.49, expected: nutrition.CategoryUnderweight},
		{name: "exact lower boundary is normal", bmi: 18.50, expected: nutrition.CategoryNormal},
		{name: "middle of normal", bmi: 22.0, expected: nutrition.CategoryNormal},
		{name: "just under overweight boundary", bmi: 24.99, expected: nutrition.CategoryNormal},
		{name: "exact overweight boundary", bmi: 25.0, expected: nutrition.CategoryOverweight},
		{name: "just under obese boundary", bmi: 29.99, expected: nutrition.CategoryOverweight},
		{name: "exact obese boundary", bmi: 30.0, expected: nutrition.CategoryObese},
		{name: "well over", bmi: 41.3, expected: nutrition.CategoryObese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := nutrition.Classify(tt.bmi); got != tt.expected {
				t.Errorf("Classify(%v) = %q, want %q", tt.bmi, got, tt.expected)
			}
		})
	}
}

// TestClassifyCoversValidRange walks the whole valid biometric range from the
// intake form and checks every combination lands in exactly one of the four
// categories with a non-empty advisory.
func TestClassifyCoversValidRange(t *testing.T) {
	t.Parallel()

	known := map[nutrition.Category]bool{
		nutrition.CategoryUnderweight: true,
		nutrition.CategoryNormal:      true,
		nutrition.CategoryOverweight:  true,
		nutrition.CategoryObese:       true,
	}

	for weight := 20.0; weight <= 300.0; weight += 20 {
		for height := 100.0; height <= 250.0; height += 10 {
			category := nutrition.Classify(nutrition.BMI(weight, height))
			if !known[category] {
				t.Fatalf("Classify(BMI(%v, %v)) returned unknown category %q", weight, height, category)
			}
			if nutrition.Advisory(category) == "" {
				t.Fatalf("Advisory(%q) is empty", category)
			}
		}
	}
}

func TestContextPrompt(t *testing.T) {
	t.Parallel()

	prompt := nutrition.ContextPrompt("Alice", 34, 56.7, 175)

	for _, want := range []string{"Alice", "34", "56.7", "175", "18.5", string(nutrition.CategoryNormal)} {
		if !strings.Contains(prompt, want) {
			t.Errorf("ContextPrompt() missing %q in %q", want, prompt)
		}
	}

	if !strings.Contains(prompt, nutrition.Advisory(nutrition.CategoryNormal)) {
		t.Errorf("ContextPrompt() does not embed the advisory sentence")
	}
}

func TestContextPromptIsDeterministic(t *testing.T) {
	t.Parallel()

	first := nutrition.ContextPrompt("Bo", 40, 80, 180)
	second := nutrition.ContextPrompt("Bo", 40, 80, 180)
	if first != second {
		t.Errorf("ContextPrompt() is not deterministic")
	}
}
