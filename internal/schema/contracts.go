package schema

// FaceContract is the expected shape of a face analysis reply
var FaceContract = Contract{
	Name: "face",
	Fields: []Field{
		{
			Name:     "metrics",
			Kind:     KindArray,
			Required: true,
			Items: &Field{
				Kind: KindObject,
				Fields: []Field{
					{Name: "concern", Kind: KindString, Required: true, Enum: stringsOf(SkinConcerns)},
					{Name: "severity", Kind: KindNumber, Required: true},
					{Name: "location", Kind: KindString},
					{Name: "notes", Kind: KindString, Required: true},
				},
			},
		},
		{Name: "followUpQuestion", Kind: KindString, Required: true},
	},
}

// ProductContract is the expected shape of a product analysis reply
var ProductContract = Contract{
	Name: "product",
	Fields: []Field{
		{Name: "productName", Kind: KindString, Required: true},
		{Name: "brandName", Kind: KindString},
		{Name: "matchScore", Kind: KindNumber, Required: true},
		{Name: "verdict", Kind: KindString, Required: true, Enum: stringsOf(Verdicts)},
		{Name: "summary", Kind: KindString},
		{Name: "keyBenefits", Kind: KindArray, Items: &Field{Kind: KindString}},
		{
			Name:     "ingredients",
			Kind:     KindArray,
			Required: true,
			Items: &Field{
				Kind: KindObject,
				Fields: []Field{
					{Name: "name", Kind: KindString, Required: true},
					{Name: "status", Kind: KindString, Required: true, Enum: stringsOf(IngredientStatuses)},
					{Name: "function", Kind: KindString, Required: true},
					{Name: "reason", Kind: KindString, Required: true},
				},
			},
		},
	},
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
