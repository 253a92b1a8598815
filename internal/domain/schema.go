/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed design.schema.json
var designSchema []byte

// DesignSchema returns the JSON schema persisted designs conform to.
func DesignSchema() []byte { return append([]byte(nil), designSchema...) }

// ErrSchema is wrapped by validation failures.
var ErrSchema = errors.New("document does not conform to schema")

// ValidateDesignJSON checks a serialized design against the design schema.
func ValidateDesignJSON(doc []byte) error {
	return validate(gojsonschema.NewBytesLoader(designSchema), doc)
}

// ValidateElementsJSON checks a serialized element list (a publish body).
func ValidateElementsJSON(doc []byte) error {
	return validate(gojsonschema.NewBytesLoader(elementListSchema()), doc)
}

// elementListSchema reuses the element definition of the design schema for bare element arrays.
func elementListSchema() []byte {
	var s struct {
		Definitions json.RawMessage `json:"definitions"`
	}
	if err := json.Unmarshal(designSchema, &s); err != nil {
		return []byte(`{}`)
	}
	return []byte(`{"type": "array", "items": {"$ref": "#/definitions/element"}, "definitions": ` + string(s.Definitions) + `}`)
}

func validate(schema gojsonschema.JSONLoader, doc []byte) error {
	res, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
