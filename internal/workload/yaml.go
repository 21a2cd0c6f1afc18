package workload

import (
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlCmd/yamlNode/yamlTrace mirror ParseDAGTrace's Test/Txn/Cmd shapes (see
// dagtrace.go) as a human-authorable YAML fixture, so test traces don't
// require hand-assembling the binary form byte by byte.
type yamlCmd struct {
	Op       string  `yaml:"op"`
	Key      uint32  `yaml:"key"`
	Value    string  `yaml:"value,omitempty"`
	ValueKey *uint32 `yaml:"value_key,omitempty"`
}

type yamlNode struct {
	ID        uint64    `yaml:"id"`
	IsTxn     bool      `yaml:"is_txn"`
	DependsOn []uint64  `yaml:"depends_on"`
	Cmds      []yamlCmd `yaml:"cmds"`
}

type yamlTrace struct {
	Nodes []yamlNode `yaml:"nodes"`
}

var opByName = map[string]OpType{
	"put": OpPut, "get": OpGet, "send_and_execute": OpSendAndExecute,
	"prepare": OpPrepare, "commit": OpCommit, "abort": OpAbort,
	"kill": OpKill, "pause": OpPause, "set": OpSet,
	"add": OpAdd, "sub": OpSub, "mult": OpMult, "div": OpDiv, "mod": OpMod,
	"and": OpAnd, "or": OpOr, "xor": OpXor, "not": OpNot, "nand": OpNand, "nor": OpNor,
}

// ParseYAMLTrace decodes a YAML DAG trace fixture into the same NodeInput
// shape a binary DAG trace parser would produce. value_key packs its
// operand as the 4-byte little-endian key Cmd.Value expects for the
// arithmetic/bitwise op family; value is used verbatim (as bytes) for
// put/set.
func ParseYAMLTrace(r io.Reader) ([]NodeInput, error) {
	var doc yamlTrace
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("workload: decode yaml trace: %w", err)
	}
	inputs := make([]NodeInput, len(doc.Nodes))
	for i, n := range doc.Nodes {
		cmds := make([]Cmd, len(n.Cmds))
		for j, c := range n.Cmds {
			op, ok := opByName[c.Op]
			if !ok {
				return nil, fmt.Errorf("workload: unknown op %q", c.Op)
			}
			var value []byte
			switch {
			case c.ValueKey != nil:
				var buf [4]byte
				binary.LittleEndian.PutUint32(buf[:], *c.ValueKey)
				value = buf[:]
			case c.Value != "":
				value = []byte(c.Value)
			}
			cmds[j] = Cmd{Op: op, Key: c.Key, Value: value}
		}
		inputs[i] = NodeInput{
			ID:        n.ID,
			IsTxn:     n.IsTxn,
			Cmds:      cmds,
			DependsOn: n.DependsOn,
		}
	}
	return inputs, nil
}
