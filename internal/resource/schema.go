/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package resource

// FieldSchema describes one field in the schema endpoint body.
type FieldSchema struct {
	Type     FieldType `json:"type"`
	Nullable bool      `json:"nullable"`
	Readonly bool      `json:"readonly"`
	HelpText string    `json:"help_text"`
}

// Schema is the body of the schema endpoint.
type Schema struct {
	Fields        map[string]FieldSchema `json:"fields"`
	DefaultFormat string                 `json:"default_format"`
	Ordering      []string               `json:"ordering,omitempty"`
	Filtering     map[string]interface{} `json:"filtering,omitempty"`
}

// BuildSchema describes the resource's declared fields and its filtering and
// ordering whitelists.
func (res *Resource) BuildSchema() Schema {
	fields := make(map[string]FieldSchema, len(res.fields))
	for _, f := range res.fields {
		fields[f.Name] = FieldSchema{
			Type:     f.Type,
			Nullable: f.Nullable,
			Readonly: f.Readonly,
			HelpText: f.HelpText,
		}
	}

	var filtering map[string]interface{}
	if len(res.meta.Filtering) > 0 {
		filtering = make(map[string]interface{}, len(res.meta.Filtering))
		for name, spec := range res.meta.Filtering {
			switch {
			case spec.All && spec.WithRelations:
				filtering[name] = "ALL_WITH_RELATIONS"
			case spec.All:
				filtering[name] = "ALL"
			default:
				ops := make([]string, len(spec.Operators))
				for i, op := range spec.Operators {
					ops[i] = string(op)
				}
				filtering[name] = ops
			}
		}
	}

	return Schema{
		Fields:        fields,
		DefaultFormat: res.meta.DefaultFormat,
		Ordering:      res.meta.Ordering,
		Filtering:     filtering,
	}
}
