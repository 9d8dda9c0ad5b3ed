package admin

// DefaultPerPage and MaxPerPage bound the changelist page size.
const (
	DefaultPerPage = 100
	MaxPerPage     = 500
)

func ProductAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "products",
		VerboseName:  "product",
		Table:        "products",
		ListDisplay:  []string{"name", "price", "seller", "created_at"},
		ListFilter:   []Filter{{Field: "created_at", Kind: FilterDate}, {Field: "seller", Kind: FilterRelation}},
		SearchFields: []string{"name", "description", "seller__email"},
		Ordering:     []string{"-created_at"},
		ReadOnly:     []string{"created_at"},
		Fieldsets: []Fieldset{
			{Fields: []string{"name", "description", "price", "seller"}},
			{Name: "Dates", Fields: []string{"created_at"}},
		},
		Inlines: []Inline{
			{Name: "images", Model: "productimages", Fields: []string{"image", "alt_text"}, ReadOnly: []string{"alt_text"}, Extra: 1},
			{Name: "variations", Model: "productvariations", Fields: []string{"variation_name", "variation_value", "price"}, Extra: 1},
		},
		ListPerPage: DefaultPerPage,
		Relations:   map[string]string{"seller": "sellers"},
	}
}

func ProductImageAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "productimages",
		VerboseName:  "product image",
		Table:        "product_images",
		ListDisplay:  []string{"product", "alt_text", "image"},
		SearchFields: []string{"product__name", "alt_text"},
		Ordering:     []string{"product"},
		Fieldsets:    []Fieldset{{Fields: []string{"product", "image", "alt_text"}}},
		ListPerPage:  DefaultPerPage,
		Relations:    map[string]string{"product": "products"},
	}
}

func ProductVariationAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "productvariations",
		VerboseName:  "product variation",
		Table:        "product_variations",
		ListDisplay:  []string{"product", "variation_name", "variation_value", "price"},
		SearchFields: []string{"product__name", "variation_name", "variation_value"},
		Ordering:     []string{"product", "variation_name"},
		Fieldsets:    []Fieldset{{Fields: []string{"product", "variation_name", "variation_value", "price"}}},
		ListPerPage:  DefaultPerPage,
		Relations:    map[string]string{"product": "products"},
	}
}

func SellerAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "sellers",
		VerboseName:  "seller",
		Table:        "sellers",
		ListDisplay:  []string{"email", "store_name", "created_at"},
		ListFilter:   []Filter{{Field: "created_at", Kind: FilterDate}},
		SearchFields: []string{"email", "store_name"},
		Ordering:     []string{"email"},
		ReadOnly:     []string{"created_at"},
		Fieldsets: []Fieldset{
			{Fields: []string{"email", "store_name", "phone"}},
			{Name: "Dates", Fields: []string{"created_at"}},
		},
		ListPerPage: DefaultPerPage,
	}
}

func UserAdmin() *ModelAdmin {
	return &ModelAdmin{
		Name:         "users",
		VerboseName:  "user",
		Table:        "users",
		ListDisplay:  []string{"username", "email", "role", "created_at"},
		ListFilter:   []Filter{{Field: "role", Kind: FilterExact}, {Field: "created_at", Kind: FilterDate}},
		SearchFields: []string{"username", "email"},
		Ordering:     []string{"username"},
		ReadOnly:     []string{"created_at"},
		Fieldsets: []Fieldset{
			{Fields: []string{"username", "email", "phone", "role"}},
			{Name: "Dates", Fields: []string{"created_at"}},
		},
		ListPerPage: DefaultPerPage,
	}
}
