package collections

import "git.home.luguber.info/inful/folio/internal/schema"

// Shared flag defaults. Every flag with fallback semantics declares its default
// explicitly so omitted fields never surface as absent.
func flagFields(toc bool) []schema.Field {
	fields := []schema.Field{
		schema.Defaulted("sensitive", schema.Bool(), false),
	}
	if toc {
		fields = append(fields, schema.Defaulted("toc", schema.Bool(), false))
	}
	return append(fields,
		schema.Defaulted("top", schema.NonNegativeInt(), 0),
		schema.Defaulted("draft", schema.Bool(), false),
	)
}

// NoteSchema validates long-form articles.
func NoteSchema() *schema.Schema {
	fields := []schema.Field{
		schema.Required("title", schema.String()),
		schema.Required("timestamp", schema.Date()),
		schema.Optional("series", schema.String()),
		schema.Optional("tags", schema.Array(schema.String())),
		schema.Optional("description", schema.String()),
	}
	return schema.New(Note, append(fields, flagFields(true)...)...)
}

// JottingSchema validates short-form notes. Jottings have no series and no
// table of contents.
func JottingSchema() *schema.Schema {
	fields := []schema.Field{
		schema.Required("title", schema.String()),
		schema.Required("timestamp", schema.Date()),
		schema.Optional("tags", schema.Array(schema.String())),
		schema.Optional("description", schema.String()),
	}
	return schema.New(Jotting, append(fields, flagFields(false)...)...)
}

// PrefaceSchema only carries a timestamp.
func PrefaceSchema() *schema.Schema {
	return schema.New(Preface, schema.Required("timestamp", schema.Date()))
}

// InformationSchema accepts anything; the collection is format-driven.
func InformationSchema() *schema.Schema {
	return schema.Passthrough(Information)
}

// ResumeSchema validates structured profile documents.
func ResumeSchema() *schema.Schema {
	str := schema.String
	return schema.New(Resume,
		schema.Required("header", schema.Object(
			schema.Required("name", str()),
			schema.Required("role", str()),
			schema.Required("email", str()),
			schema.Required("phone", str()),
			schema.Required("website", str()),
			schema.Required("github", str()),
			schema.Required("linkedin", str()),
		)),
		schema.Required("introLines", schema.Array(str())),
		schema.Required("experience", schema.Array(schema.Object(
			schema.Required("company", str()),
			schema.Required("role", str()),
			schema.Required("date", str()),
			schema.Optional("intro", str()),
			schema.Optional("activities", schema.Array(str())),
			schema.Optional("techStack", schema.Array(schema.Object(
				schema.Required("name", str()),
				schema.Required("description", str()),
			))),
			schema.Optional("relatedLinks", schema.Array(schema.Object(
				schema.Required("text", str()),
				schema.Required("url", str()),
			))),
		))),
		schema.Required("education", schema.Array(schema.Object(
			schema.Required("school", str()),
			schema.Required("degree", str()),
			schema.Required("date", str()),
		))),
		schema.Optional("activities_list", schema.Array(schema.Object(
			schema.Required("name", str()),
			schema.Required("role", str()),
			schema.Required("date", str()),
			schema.Required("description", str()),
		))),
		schema.Optional("awards", schema.Array(schema.Object(
			schema.Required("name", str()),
			schema.Required("role", str()),
			schema.Required("date", str()),
		))),
		schema.Optional("certifications", schema.Array(str())),
	)
}
