package matcher

import "strconv"

// expandTemplate appends template to dest with $N and ${name} references
// substituted from sub (regexp.FindSubmatchIndex-style index pairs into
// text). $$ is a literal dollar sign. Unknown groups expand to nothing,
// matching ripgrep's replacement behavior.
func expandTemplate(dest []byte, template []byte, text []byte, sub []int, names map[string]int) []byte {
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i == len(template)-1 {
			dest = append(dest, c)
			continue
		}
		rest := template[i+1:]
		if rest[0] == '$' {
			dest = append(dest, '$')
			i++
			continue
		}
		if rest[0] == '{' {
			end := indexByte(rest, '}')
			if end < 0 {
				dest = append(dest, c)
				continue
			}
			ref := string(rest[1:end])
			dest = appendGroup(dest, text, sub, names, ref)
			i += end + 1
			continue
		}
		j := 0
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j == 0 {
			dest = append(dest, c)
			continue
		}
		dest = appendGroup(dest, text, sub, names, string(rest[:j]))
		i += j
	}
	return dest
}

func appendGroup(dest []byte, text []byte, sub []int, names map[string]int, ref string) []byte {
	idx := -1
	if n, err := strconv.Atoi(ref); err == nil {
		idx = n
	} else if names != nil {
		if n, ok := names[ref]; ok {
			idx = n
		}
	}
	if idx < 0 || 2*idx+1 >= len(sub) {
		return dest
	}
	start, end := sub[2*idx], sub[2*idx+1]
	if start < 0 || end < 0 {
		return dest
	}
	return append(dest, text[start:end]...)
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
