package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Tomate perita", CategoryVerduleria},
		{"CEBOLLA", CategoryVerduleria},
		{"Pechuga de pollo", CategoryCarniceria},
		{"Carne picada", CategoryCarniceria},
		{"Leche entera", CategoryLacteos},
		{"Queso rallado", CategoryLacteos},
		{"Pan francés", CategoryPanaderia},
		{"Arroz largo fino", CategoryAlmacen},
		{"Azúcar", CategoryAlmacen},
		{"Detergente", CategoryLimpieza},
		{"Papel higiénico", CategoryLimpieza},
		{"Quinoa", CategoryOtros},
		{"", CategoryOtros},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCategory(tt.name))
		})
	}
}

func TestClassifyCategory_TableOrderDecidesTies(t *testing.T) {
	// lacteos entries precede panaderia ones.
	assert.Equal(t, CategoryLacteos, ClassifyCategory("Pan de queso"))
	// carniceria precedes almacen, so "salchicha" wins over "sal".
	assert.Equal(t, CategoryCarniceria, ClassifyCategory("Salchichas"))
	// verduleria precedes everything.
	assert.Equal(t, CategoryVerduleria, ClassifyCategory("Salsa de tomate"))
}

func TestClassifyCategory_IsPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, CategoryLacteos, ClassifyCategory("Yogur"))
	}
}

func TestCategoryKeywordsOrder(t *testing.T) {
	// The first occurrence of each category fixes precedence.
	var seen []Category
	index := map[Category]bool{}
	for _, kw := range categoryKeywords {
		if !index[kw.category] {
			index[kw.category] = true
			seen = append(seen, kw.category)
		}
	}
	assert.Equal(t, []Category{
		CategoryVerduleria,
		CategoryCarniceria,
		CategoryLacteos,
		CategoryPanaderia,
		CategoryAlmacen,
		CategoryLimpieza,
	}, seen)
}
