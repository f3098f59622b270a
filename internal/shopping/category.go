package shopping

import "strings"

type categoryKeyword struct {
	keyword  string
	category Category
}

// categoryKeywords is scanned in order and the first keyword contained in
// the lower-cased name wins: "pan de queso" is lacteos because the lacteos
// entries precede the panaderia ones.
var categoryKeywords = []categoryKeyword{
	// verduleria
	{"tomate", CategoryVerduleria},
	{"lechuga", CategoryVerduleria},
	{"cebolla", CategoryVerduleria},
	{"papa", CategoryVerduleria},
	{"batata", CategoryVerduleria},
	{"zanahoria", CategoryVerduleria},
	{"zapallo", CategoryVerduleria},
	{"morrón", CategoryVerduleria},
	{"morron", CategoryVerduleria},
	{"ajo", CategoryVerduleria},
	{"espinaca", CategoryVerduleria},
	{"acelga", CategoryVerduleria},
	{"choclo", CategoryVerduleria},
	{"limón", CategoryVerduleria},
	{"limon", CategoryVerduleria},
	{"manzana", CategoryVerduleria},
	{"banana", CategoryVerduleria},
	{"naranja", CategoryVerduleria},
	{"perejil", CategoryVerduleria},
	{"verdura", CategoryVerduleria},
	{"fruta", CategoryVerduleria},

	// carniceria
	{"carne", CategoryCarniceria},
	{"pollo", CategoryCarniceria},
	{"cerdo", CategoryCarniceria},
	{"milanesa", CategoryCarniceria},
	{"bife", CategoryCarniceria},
	{"asado", CategoryCarniceria},
	{"chorizo", CategoryCarniceria},
	{"salchicha", CategoryCarniceria},
	{"jamón", CategoryCarniceria},
	{"jamon", CategoryCarniceria},
	{"pescado", CategoryCarniceria},
	{"merluza", CategoryCarniceria},

	// lacteos
	{"leche", CategoryLacteos},
	{"queso", CategoryLacteos},
	{"yogur", CategoryLacteos},
	{"manteca", CategoryLacteos},
	{"crema", CategoryLacteos},
	{"ricota", CategoryLacteos},
	{"huevo", CategoryLacteos},

	// panaderia
	{"pan", CategoryPanaderia},
	{"factura", CategoryPanaderia},
	{"tostada", CategoryPanaderia},
	{"galleta", CategoryPanaderia},
	{"bizcocho", CategoryPanaderia},

	// almacen
	{"arroz", CategoryAlmacen},
	{"fideo", CategoryAlmacen},
	{"harina", CategoryAlmacen},
	{"aceite", CategoryAlmacen},
	{"azúcar", CategoryAlmacen},
	{"azucar", CategoryAlmacen},
	{"sal", CategoryAlmacen},
	{"lenteja", CategoryAlmacen},
	{"garbanzo", CategoryAlmacen},
	{"poroto", CategoryAlmacen},
	{"yerba", CategoryAlmacen},
	{"café", CategoryAlmacen},
	{"cafe", CategoryAlmacen},
	{"vinagre", CategoryAlmacen},
	{"conserva", CategoryAlmacen},
	{"lata", CategoryAlmacen},

	// limpieza
	{"detergente", CategoryLimpieza},
	{"lavandina", CategoryLimpieza},
	{"jabón", CategoryLimpieza},
	{"jabon", CategoryLimpieza},
	{"esponja", CategoryLimpieza},
	{"papel higiénico", CategoryLimpieza},
	{"papel higienico", CategoryLimpieza},
}

// ClassifyCategory returns the store section for an ingredient name.
func ClassifyCategory(name string) Category {
	lower := strings.ToLower(name)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.category
		}
	}
	return CategoryOtros
}
