// Package formdef loads declarative form definitions written in CUE and
// builds live forms from them.
//
// A definitions directory holds one CUE package with a top-level "form"
// struct, one field per form:
//
//	form: profile: {
//		screen:          "profileEditor"
//		multipart:       true
//		upload_limit_kb: 512
//		default_submit:  "save"
//		elements: [
//			{name: "username", kind: "text", required: true},
//			{name: "newsletter", kind: "toggle"},
//			{name: "topics", kind: "select", options: ["go", "cue"], hidden: true},
//			{name: "save", kind: "submit"},
//		]
//		rules: [
//			{trigger: "newsletter", when: "set", effect: "show", targets: ["topics"]},
//		]
//	}
//
// Element kinds are text, file, toggle, select, submit, button and group.
// A group nests its own elements and rules.
package formdef
