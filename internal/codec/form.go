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

package codec

import (
	"fmt"
	"net/url"
	"sort"
)

// formCodec decodes url-encoded bodies into a flat string map. Repeated keys
// decode to a slice. Input only in practice; Marshal is provided for
// symmetry and handles flat maps.
type formCodec struct{}

// Form returns the url-encoded form codec.
func Form() Codec {
	return &formCodec{}
}

func (c *formCodec) ContentType() string {
	return "application/x-www-form-urlencoded"
}

func (c *formCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("form codec can only encode a flat map, got %T", v)
	}
	values := url.Values{}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch val := m[k].(type) {
		case []interface{}:
			for _, item := range val {
				values.Add(k, fmt.Sprintf("%v", item))
			}
		default:
			values.Add(k, fmt.Sprintf("%v", val))
		}
	}
	return []byte(values.Encode()), nil
}

func (c *formCodec) Unmarshal(data []byte, v interface{}) error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	out := make(map[string]interface{}, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		items := make([]interface{}, len(vs))
		for i, s := range vs {
			items[i] = s
		}
		out[k] = items
	}
	ptr, ok := v.(*interface{})
	if !ok {
		return fmt.Errorf("form codec requires a *interface{} target, got %T", v)
	}
	*ptr = out
	return nil
}
