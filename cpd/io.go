package cpd

import (
	"fmt"
	"os"

	"github.com/eggeek/oracle-search/graph"
	. "github.com/eggeek/oracle-search/util"
)

// Magic identifies a cpd file; bumped if the layout ever changes.
const Magic = uint32(0x31445043) // "CPD1"

//*******************************************
// cpd files
//*******************************************

// Store writes the oracle in the cross-tool binary format:
// [magic u32][table type u8][order i32-array][num_sources i32][per source: run array].
// All values little-endian; arrays are length-prefixed with an i32.
// The order array is written in the swapped (node to rank) form.
func (self *Oracle) Store(path string) error {
	if !self.swapped {
		return fmt.Errorf("oracle must be finalized before storing")
	}
	writer := NewBufferWriter()
	Write(writer, Magic)
	Write(writer, uint8(self.typ))
	WriteArray(writer, self.order)
	Write(writer, int32(self.rows.Length()))
	for _, runs := range self.rows {
		WriteArray(writer, runs)
	}
	return WriteBufferToFile(writer, path)
}

// LoadOracle reads a cpd file written by Store and binds it to g.
func LoadOracle(path string, g *graph.Graph) (*Oracle, error) {
	reader, err := ReadBufferFromFile(path)
	if err != nil {
		return nil, err
	}
	magic := Read[uint32](reader)
	if magic != Magic {
		return nil, fmt.Errorf("%v: not a cpd file (magic %x)", path, magic)
	}
	typ := Symbol(Read[uint8](reader))
	order := ReadArray[int32](reader)
	if order.Length() != g.NodeCount() {
		return nil, fmt.Errorf("%v: cpd built for %v nodes, graph has %v", path, order.Length(), g.NodeCount())
	}
	num_sources := Read[int32](reader)
	if int(num_sources) != g.NodeCount() {
		return nil, fmt.Errorf("%v: cpd has %v sources, graph has %v nodes", path, num_sources, g.NodeCount())
	}
	oracle := &Oracle{
		g:       g,
		typ:     typ,
		order:   order,
		swapped: true,
		rows:    NewArray[Array[Run]](int(num_sources)),
	}
	for i := int32(0); i < num_sources; i++ {
		oracle.rows[i] = ReadArray[Run](reader)
	}
	return oracle, nil
}

//*******************************************
// conf sidecars
//*******************************************

// Conf is the sidecar record written next to every cpd file. It ties
// the shard back to the graph and partition settings it was built
// with. The query server does not read it.
type Conf struct {
	XYFile    string `csv:"xyfile"`
	Method    string `csv:"method"`
	MethodKey int    `csv:"methodkey"`
	WID       int    `csv:"wid"`
	BID       int    `csv:"bid"`
	CPDType   string `csv:"cpdtype"`
}

func WriteConf(path string, conf Conf) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	fmt.Fprintln(file, "xyfile,method,methodkey,wid,bid,cpdtype")
	_, err = fmt.Fprintf(file, "%v,%v,%v,%v,%v,%v\n",
		conf.XYFile, conf.Method, conf.MethodKey, conf.WID, conf.BID, conf.CPDType)
	return err
}

func ReadConf(path string) (Conf, error) {
	rows, err := ReadCSV[Conf](path, ',')
	if err != nil {
		return Conf{}, err
	}
	if rows.Length() != 1 {
		return Conf{}, fmt.Errorf("%v: expected one conf row, got %v", path, rows.Length())
	}
	return rows[0], nil
}
