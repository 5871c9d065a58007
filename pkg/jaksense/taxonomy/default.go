package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

// Problem labels shipped in data/problem.yaml.
const (
	Keterlambatan     Label = "Keterlambatan"
	Pelayanan         Label = "Pelayanan"
	Kondisi           Label = "Kondisi"
	MasalahPembayaran Label = "Masalah Pembayaran"
	Navigasi          Label = "Navigasi"
	Kemacetan         Label = "Kemacetan"
	Ancaman           Label = "Ancaman"
	Infrastruktur     Label = "Infrastruktur"
	AksesRute         Label = "Akses/Rute"
	KebutuhanKhusus   Label = "Prioritas/Kebutuhan Khusus"
	EmosiFrustrasi    Label = "Emosi/Frustrasi"
	RegulasiOperasi   Label = "Regulasi/Operasional"
)

// Good-aspect labels shipped in data/good_aspect.yaml.
const (
	Kebersihan       Label = "Kebersihan"
	Kenyamanan       Label = "Kenyamanan"
	KualitasLayanan  Label = "Kualitas Layanan"
	Harga            Label = "Harga"
	KecepatanLayanan Label = "Kecepatan Layanan"
	Fasilitas        Label = "Fasilitas"
	Aksesibilitas    Label = "Aksesibilitas"
	Keamanan         Label = "Keamanan"
	CuacaSuasana     Label = "Kondisi Cuaca/Suasana"
)

// Lainnya is the catch-all label used when the no-match policy asks for one.
// It belongs to neither taxonomy.
const Lainnya Label = "Lainnya"

// ProblemLabels lists the built-in problem labels in file order.
func ProblemLabels() []Label {
	return []Label{
		Keterlambatan, Pelayanan, Kondisi, MasalahPembayaran, Navigasi, Kemacetan,
		Ancaman, Infrastruktur, AksesRute, KebutuhanKhusus, EmosiFrustrasi, RegulasiOperasi,
	}
}

// GoodAspectLabels lists the built-in good-aspect labels in file order.
func GoodAspectLabels() []Label {
	return []Label{
		Kebersihan, Kenyamanan, KualitasLayanan, Harga, KecepatanLayanan,
		Fasilitas, Aksesibilitas, Keamanan, CuacaSuasana,
	}
}

//go:embed data/problem.yaml
var problemYAML []byte

//go:embed data/good_aspect.yaml
var goodAspectYAML []byte

// File is the on-disk YAML shape of one taxonomy. Categories are a list so
// that match order survives decoding.
type File struct {
	Kind       string `yaml:"kind"`
	Categories []struct {
		Name     string   `yaml:"name"`
		Triggers []string `yaml:"triggers"`
	} `yaml:"categories"`
}

// Parse decodes a YAML taxonomy and builds it as the given kind. A file that
// declares a different kind is rejected.
func Parse(kind Kind, data []byte) (*Taxonomy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode %s taxonomy: %v", internalerr.ErrInvalidConfig, kind, err)
	}
	if f.Kind != "" {
		declared, err := ParseKind(f.Kind)
		if err != nil {
			return nil, err
		}
		if declared != kind {
			return nil, fmt.Errorf("%w: file declares %s, expected %s", internalerr.ErrInvalidConfig, declared, kind)
		}
	}

	cats := make([]Category, 0, len(f.Categories))
	for _, c := range f.Categories {
		cats = append(cats, Category{Name: Label(c.Name), Triggers: c.Triggers})
	}
	return New(kind, cats)
}

// LoadFile reads and parses a taxonomy file.
func LoadFile(kind Kind, path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s taxonomy %s: %w", kind, path, err)
	}
	return Parse(kind, data)
}

// Default builds the taxonomy set from the embedded data files and checks
// they define exactly the exported labels.
func Default() (*Set, error) {
	problem, err := Parse(Problem, problemYAML)
	if err != nil {
		return nil, err
	}
	if err := requireLabels(problem, ProblemLabels()); err != nil {
		return nil, err
	}

	good, err := Parse(GoodAspect, goodAspectYAML)
	if err != nil {
		return nil, err
	}
	if err := requireLabels(good, GoodAspectLabels()); err != nil {
		return nil, err
	}

	return NewSet(problem, good)
}

func requireLabels(t *Taxonomy, want []Label) error {
	got := t.Labels()
	if len(got) != len(want) {
		return fmt.Errorf("%w: embedded %s taxonomy has %d categories, want %d",
			internalerr.ErrInvalidConfig, t.Kind(), len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: embedded %s taxonomy category %d is %q, want %q",
				internalerr.ErrInvalidConfig, t.Kind(), i, got[i], want[i])
		}
	}
	return nil
}
