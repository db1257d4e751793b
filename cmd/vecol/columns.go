package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oisee/veccol/pkg/column"
	"github.com/oisee/veccol/pkg/domain"
)

// parseColumnSpec parses a "name:type=v1,v2,v3" column literal, the
// CLI's equivalent of the teacher's assembly-line parsing in
// cmd/z80opt/main.go's parseAssembly: a single compact flag value
// turned into a typed in-memory value.
func parseColumnSpec(spec string) (string, *column.Column, error) {
	nameType, valuesPart, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("column spec %q: want name:type=v1,v2,...", spec)
	}
	name, typ, ok := strings.Cut(nameType, ":")
	if !ok {
		return "", nil, fmt.Errorf("column spec %q: missing :type before '='", spec)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("column spec %q: empty name", spec)
	}

	raw := strings.Split(valuesPart, ",")
	col, err := buildColumn(typ, raw)
	if err != nil {
		return "", nil, fmt.Errorf("column spec %q: %w", spec, err)
	}
	return name, col, nil
}

func buildColumn(typ string, raw []string) (*column.Column, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "i32":
		data := make([]int32, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("value %d (%q): %w", i, s, err)
			}
			data[i] = int32(v)
		}
		return column.NewI32(data), nil

	case "f32":
		data := make([]float32, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
			if err != nil {
				return nil, fmt.Errorf("value %d (%q): %w", i, s, err)
			}
			data[i] = float32(v)
		}
		return column.NewF32(data), nil

	case "bf16":
		data := make([]domain.BF16, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
			if err != nil {
				return nil, fmt.Errorf("value %d (%q): %w", i, s, err)
			}
			data[i] = domain.BF16FromFloat32(float32(v))
		}
		return column.NewBF16(data), nil

	default:
		return nil, fmt.Errorf("unknown column type %q (want i32, f32, or bf16)", typ)
	}
}

// formatColumn renders col as a compact "type[v1 v2 v3]" string, with
// absent rows shown as "_".
func formatColumn(col *column.Column) string {
	var sb strings.Builder
	sb.WriteString(col.Kind.String())
	sb.WriteByte('[')
	for i := 0; i < col.Len(); i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		present, _ := col.Present.Test(uint64(i))
		if !present {
			sb.WriteByte('_')
			continue
		}
		switch col.Kind {
		case domain.KindI32:
			sb.WriteString(strconv.FormatInt(int64(col.I32Data[i]), 10))
		case domain.KindF32:
			sb.WriteString(strconv.FormatFloat(float64(col.F32Data[i]), 'g', -1, 32))
		case domain.KindBF16:
			sb.WriteString(strconv.FormatFloat(float64(col.BF16Data[i].ToFloat32()), 'g', -1, 32))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
