package schema

// Schemas for the request bodies the HTTP handlers accept. Emptiness of
// required values is checked by the services, which own the messages.

func text(maxLength int) *Schema {
	return &Schema{Types: []string{String, Number, Null}, MaxLength: maxLength}
}

func str(maxLength int) *Schema {
	return &Schema{Types: []string{String, Null}, MaxLength: maxLength}
}

func object() *Schema {
	return &Schema{Types: []string{Object, Null}}
}

func list() *Schema {
	return &Schema{
		Types: []string{Array, String, Null},
		Items: &Schema{Types: []string{String, Number}, MaxLength: 200},
	}
}

func flag() *Schema {
	return &Schema{Types: []string{Boolean, Number, String, Null}}
}

// Quote is the quote-builder submission.
var Quote = &Schema{
	Types: []string{Object},
	Properties: map[string]*Schema{
		"ref":        str(200),
		"createdAt":  {Types: []string{String, Null}, MaxLength: 64},
		"client":     object(),
		"commercial": object(),
		"state":      object(),
		"discount":   {Types: []string{Number, String, Null}, MaxLength: 64},
		"solution":   {},
	},
}

// Waitlist is the waitlist signup form.
var Waitlist = &Schema{
	Types: []string{Object},
	Properties: map[string]*Schema{
		"product": text(200),
		"name":    text(200),
		"company": text(200),
		"phone":   text(64),
		"email":   text(320),
		"note":    text(2000),
	},
}

// Login is the administrator sign-in form.
var Login = &Schema{
	Types:  []string{Object},
	Closed: true,
	Properties: map[string]*Schema{
		"username": str(200),
		"password": str(200),
	},
}

// ProductPatch is an admin product edit.
var ProductPatch = &Schema{
	Types: []string{Object},
	Properties: map[string]*Schema{
		"slug":     text(200),
		"name":     text(200),
		"short":    text(1000),
		"image":    text(2000),
		"link":     text(2000),
		"cta":      text(200),
		"type":     list(),
		"deploy":   list(),
		"pricing":  list(),
		"tags":     list(),
		"featured": flag(),
		"isNew":    flag(),
	},
}
