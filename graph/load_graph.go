package graph

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	. "github.com/eggeek/oracle-search/util"
)

//*******************************************
// xy-graph text format
//*******************************************

// LoadXYGraph reads a graph in the xy text format:
//
//	nodes N
//	v x y          (N times)
//	edges M
//	tail head w    (M times)
//
// An optional leading "reverse" token forces incoming adjacency to be
// stored regardless of the reverse parameter.
func LoadXYGraph(path string, reverse bool) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	scanner.Split(bufio.ScanWords)
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}
	next_int := func() (int64, error) {
		tok, ok := next()
		if !ok {
			return 0, fmt.Errorf("%v: unexpected end of file", path)
		}
		return strconv.ParseInt(tok, 10, 64)
	}

	tok, ok := next()
	if !ok {
		return nil, fmt.Errorf("%v: empty graph file", path)
	}
	if tok == "reverse" {
		reverse = true
		tok, _ = next()
	}
	if tok != "nodes" {
		return nil, fmt.Errorf("%v: expected 'nodes' header, got %q", path, tok)
	}
	n, err := next_int()
	if err != nil {
		return nil, err
	}

	nodes := NewArray[Node](int(n))
	for i := int64(0); i < n; i++ {
		id, err := next_int()
		if err != nil {
			return nil, err
		}
		x, err := next_int()
		if err != nil {
			return nil, err
		}
		y, err := next_int()
		if err != nil {
			return nil, err
		}
		if id < 0 || id >= n {
			return nil, fmt.Errorf("%v: node id %v out of range", path, id)
		}
		nodes[id] = Node{X: int32(x), Y: int32(y)}
	}

	tok, ok = next()
	if !ok || tok != "edges" {
		return nil, fmt.Errorf("%v: expected 'edges' header, got %q", path, tok)
	}
	m, err := next_int()
	if err != nil {
		return nil, err
	}
	edges := NewArray[Edge](int(m))
	for i := int64(0); i < m; i++ {
		tail, err := next_int()
		if err != nil {
			return nil, err
		}
		head, err := next_int()
		if err != nil {
			return nil, err
		}
		weight, err := next_int()
		if err != nil {
			return nil, err
		}
		edges[i] = Edge{Tail: int32(tail), Head: int32(head), Weight: int32(weight)}
	}

	return NewGraph(nodes, edges, reverse)
}

// StoreXYGraph writes the graph in the xy text format.
func StoreXYGraph(g *Graph, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "nodes %v\n", g.NodeCount())
	for i := 0; i < g.NodeCount(); i++ {
		x, y := g.XY(int32(i))
		fmt.Fprintf(writer, "%v %v %v\n", i, x, y)
	}
	fmt.Fprintf(writer, "edges %v\n", g.EdgeCount())
	for i := 0; i < g.EdgeCount(); i++ {
		tail, head := g.EdgeEnds(int32(i))
		fmt.Fprintf(writer, "%v %v %v\n", tail, head, g.Weight(int32(i)))
	}
	return writer.Flush()
}

//*******************************************
// dimacs format
//*******************************************

// LoadDIMACS reads a 9th DIMACS challenge road network from a gr file
// ("a tail head weight" arcs, 1-indexed) and an optional co file
// ("v id x y" coordinates).
func LoadDIMACS(gr_file string, co_file string, reverse bool) (*Graph, error) {
	file, err := os.Open(gr_file)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var n, m int64
	edges := NewList[Edge](1000)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case 'c':
			continue
		case 'p':
			if _, err := fmt.Sscanf(line, "p sp %d %d", &n, &m); err != nil {
				return nil, fmt.Errorf("%v: bad problem line %q", gr_file, line)
			}
		case 'a':
			var tail, head, weight int64
			if _, err := fmt.Sscanf(line, "a %d %d %d", &tail, &head, &weight); err != nil {
				return nil, fmt.Errorf("%v: bad arc line %q", gr_file, line)
			}
			edges.Add(Edge{Tail: int32(tail - 1), Head: int32(head - 1), Weight: int32(weight)})
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("%v: missing problem line", gr_file)
	}

	nodes := NewArray[Node](int(n))
	if co_file != "" {
		co, err := os.Open(co_file)
		if err != nil {
			return nil, err
		}
		defer co.Close()
		scanner := bufio.NewScanner(co)
		for scanner.Scan() {
			line := scanner.Text()
			if len(line) == 0 || line[0] != 'v' {
				continue
			}
			var id, x, y int64
			if _, err := fmt.Sscanf(line, "v %d %d %d", &id, &x, &y); err != nil {
				return nil, fmt.Errorf("%v: bad coordinate line %q", co_file, line)
			}
			nodes[id-1] = Node{X: int32(x), Y: int32(y)}
		}
	}

	return NewGraph(nodes, Array[Edge](edges), reverse)
}

//*******************************************
// diff files
//*******************************************

// LoadDiff reads edge-weight perturbations: a count s followed by s
// lines of "head tail new_weight".
func LoadDiff(path string) (List[EdgePatch], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var s int
	if _, err := fmt.Fscan(file, &s); err != nil {
		return nil, fmt.Errorf("%v: missing perturbation count", path)
	}
	patches := NewList[EdgePatch](s)
	for i := 0; i < s; i++ {
		var head, tail, weight int32
		if _, err := fmt.Fscan(file, &head, &tail, &weight); err != nil {
			return nil, fmt.Errorf("%v: bad perturbation line %v", path, i)
		}
		patches.Add(EdgePatch{Tail: tail, Head: head, Weight: weight})
	}
	return patches, nil
}
