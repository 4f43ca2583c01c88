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
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cast"
)

// xmlCodec renders generic data with hinted types in a "type" element
// attribute, so round-trips preserve integers, floats, booleans and nulls.
type xmlCodec struct{}

// XML returns the XML codec.
func XML() Codec {
	return &xmlCodec{}
}

func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

func (c *xmlCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := encodeXMLValue(enc, "response", v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXMLValue(enc *xml.Encoder, name string, v interface{}) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch val := v.(type) {
	case nil:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: "null"})
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	case map[string]interface{}:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: "hash"})
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		// Stable key order keeps two encodings of the same data identical.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := encodeXMLValue(enc, k, val[k]); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case []interface{}:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: "list"})
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range val {
			if err := encodeXMLValue(enc, "object", item); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case bool:
		return encodeXMLScalar(enc, start, "boolean", fmt.Sprintf("%v", val))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return encodeXMLScalar(enc, start, "integer", fmt.Sprintf("%d", val))
	case float32, float64:
		return encodeXMLScalar(enc, start, "float", cast.ToString(val))
	case string:
		return encodeXMLScalar(enc, start, "string", val)
	default:
		return encodeXMLScalar(enc, start, "string", fmt.Sprintf("%v", val))
	}
}

func encodeXMLScalar(enc *xml.Encoder, start xml.StartElement, typ, text string) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: typ})
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func (c *xmlCodec) Unmarshal(data []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root, err := nextStartElement(dec)
	if err != nil {
		return err
	}
	parsed, err := decodeXMLElement(dec, root)
	if err != nil {
		return err
	}
	ptr, ok := v.(*interface{})
	if !ok {
		return fmt.Errorf("xml codec requires a *interface{} target, got %T", v)
	}
	*ptr = parsed
	return nil
}

func nextStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func decodeXMLElement(dec *xml.Decoder, start xml.StartElement) (interface{}, error) {
	typ := ""
	for _, attr := range start.Attr {
		if attr.Name.Local == "type" {
			typ = attr.Value
		}
	}

	var children []xml.StartElement
	var childValues []interface{}
	var childNames []string
	var text bytes.Buffer

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			val, err := decodeXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			children = append(children, t)
			childValues = append(childValues, val)
			childNames = append(childNames, t.Name.Local)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return buildXMLValue(typ, children, childNames, childValues, text.String())
			}
		}
	}
	return buildXMLValue(typ, children, childNames, childValues, text.String())
}

func buildXMLValue(typ string, children []xml.StartElement, names []string, values []interface{}, text string) (interface{}, error) {
	switch {
	case typ == "list":
		out := make([]interface{}, len(values))
		copy(out, values)
		return out, nil
	case typ == "hash" || len(children) > 0:
		out := make(map[string]interface{}, len(values))
		for i, name := range names {
			out[name] = values[i]
		}
		return out, nil
	case typ == "null":
		return nil, nil
	case typ == "integer":
		return cast.ToInt64E(text)
	case typ == "float":
		return cast.ToFloat64E(text)
	case typ == "boolean":
		return cast.ToBoolE(text)
	default:
		return text, nil
	}
}
