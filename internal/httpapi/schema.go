// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tasklist Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/tasklist/tasklist/pkg/errutil"
)

// schemaBaseURL prefixes the $id of every request schema.
const schemaBaseURL = "https://tasklist.dev/schemas/"

// Request bodies. Fields without omitempty are required.
type (
	registerRequest struct {
		Username  string `json:"username" jsonschema:"description=Login name of 3 to 30 letters or digits or underscores starting with a letter"`
		Email     string `json:"email" jsonschema:"description=Contact address"`
		FirstName string `json:"first_name,omitempty"`
		LastName  string `json:"last_name,omitempty"`
		Password  string `json:"password" jsonschema:"description=Plaintext password (hashed before storage)"`
		Role      string `json:"role,omitempty" jsonschema:"description=Role tag (defaults to user)"`
	}

	passwordChangeRequest struct {
		Password    string `json:"password" jsonschema:"description=Current password"`
		NewPassword string `json:"new_password"`
	}

	todoRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    int    `json:"priority" jsonschema:"description=1 (lowest) to 5 (highest)"`
		Completed   bool   `json:"completed,omitempty"`
	}
)

// Schema names, also used as file names by gen-schema.
const (
	SchemaRegister       = "register"
	SchemaPasswordChange = "password_change"
	SchemaTodo           = "todo"
)

var requestTypes = map[string]struct {
	v     any
	title string
}{
	SchemaRegister:       {&registerRequest{}, "Tasklist registration"},
	SchemaPasswordChange: {&passwordChangeRequest{}, "Tasklist password change"},
	SchemaTodo:           {&todoRequest{}, "Tasklist todo"},
}

// SchemaNames lists the request schemas in a stable order.
func SchemaNames() []string {
	names := make([]string, 0, len(requestTypes))
	for name := range requestTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SchemaID returns the $id of the named schema.
func SchemaID(name string) string {
	return schemaBaseURL + name + ".schema.json"
}

// GenerateSchema returns the JSON Schema for the named request body.
func GenerateSchema(name string) ([]byte, error) {
	rt, ok := requestTypes[name]
	if !ok {
		return nil, oops.Code("SCHEMA_UNKNOWN").With("name", name).Errorf("unknown schema %q", name)
	}

	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(rt.v)
	schema.ID = jsonschema.ID(SchemaID(name))
	schema.Title = rt.title

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").With("name", name).Wrap(err)
	}
	return data, nil
}

// validators holds the compiled request schemas.
type validators map[string]*jschema.Schema

func compileValidators() (validators, error) {
	c := jschema.NewCompiler()
	for _, name := range SchemaNames() {
		data, err := GenerateSchema(name)
		if err != nil {
			return nil, err
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
		if err := c.AddResource(SchemaID(name), doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
	}

	out := make(validators, len(requestTypes))
	for _, name := range SchemaNames() {
		sch, err := c.Compile(SchemaID(name))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
		out[name] = sch
	}
	return out, nil
}

// validate checks a decoded JSON document against the named schema and
// converts failures to field errors.
func (vs validators) validate(name string, doc any) error {
	sch, ok := vs[name]
	if !ok {
		return oops.Code("SCHEMA_UNKNOWN").With("name", name).Errorf("unknown schema %q", name)
	}
	err := sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jschema.ValidationError
	if !errors.As(err, &ve) {
		return oops.Code("SCHEMA_VALIDATE_FAILED").Wrap(err)
	}

	var v errutil.ValidationError
	collectSchemaErrors(ve, &v)
	if len(v.Fields) == 0 {
		v.Add("body", "does not match the expected shape")
	}
	return oops.Code("REQUEST_INVALID").Wrap(v.Err())
}

func collectSchemaErrors(ve *jschema.ValidationError, v *errutil.ValidationError) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectSchemaErrors(cause, v)
		}
		return
	}

	field := fieldName(ve.InstanceLocation)
	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		for _, missing := range k.Missing {
			v.Add(joinField(field, missing), "is required")
		}
	case *kind.AdditionalProperties:
		for _, extra := range k.Properties {
			v.Add(joinField(field, extra), "is not allowed")
		}
	case *kind.Type:
		v.Add(field, "must be of type "+strings.Join(k.Want, " or "))
	default:
		v.Add(field, "is invalid")
	}
}

func fieldName(loc []string) string {
	if len(loc) == 0 {
		return "body"
	}
	return strings.Join(loc, ".")
}

func joinField(parent, child string) string {
	if parent == "body" {
		return child
	}
	return parent + "." + child
}
