package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/tinyrange/fwcfg"
)

func run() error {
	probe := flag.Bool("probe", false, "check for a QEMU CPU and exit")
	list := flag.Bool("list", false, "list the file directory")
	read := flag.String("read", "", "read a named file")
	out := flag.String("o", "", "write the file here instead of stdout")
	transport := flag.String("transport", "", "register mechanism: port or mmio")
	base := flag.Uint64("base", 0, "MMIO window base address (mmio transport)")
	configPath := flag.String("config", "", "YAML platform description")
	legacy := flag.Bool("legacy", false, "stay on the legacy register path, no DMA")
	verbose := flag.Bool("v", false, "verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `fwcfgdump - inspect the QEMU fw_cfg device from inside a guest

USAGE:
  fwcfgdump [flags] (-probe | -list | -read NAME)

FLAGS:
  -probe            Report whether the CPU identifies as QEMU (TCG or KVM)
  -list             List every file in the fw_cfg directory
  -read NAME        Dump a file's contents (e.g. opt/input.txt)
  -o FILE           Destination for -read (default: stdout)
  -transport KIND   port (x86 I/O ports) or mmio (memory-mapped window)
  -base ADDR        MMIO window base, overriding the platform config
  -config FILE      YAML platform description (transport, mmio base)
  -legacy           Disable the DMA interface even if advertised

EXAMPLES:
  fwcfgdump -list
  fwcfgdump -read opt/input.txt
  fwcfgdump -read opt/initrd -o /tmp/initrd
  fwcfgdump -transport mmio -base 0x09020000 -list
`)
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *probe {
		if fwcfg.InsideQEMU() {
			fmt.Println("QEMU CPU detected")
			return nil
		}
		fmt.Println("no QEMU CPU detected")
		os.Exit(1)
	}

	if !*list && *read == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *base != 0 {
		cfg.MMIO.Base = *base
	}

	if !fwcfg.InsideQEMU() {
		slog.Warn("CPU does not identify as QEMU, register access may misbehave")
	}

	var t fwcfg.Transport
	switch cfg.Transport {
	case "port":
		pt, err := fwcfg.NewPortTransport()
		if err != nil {
			return err
		}
		t = pt
	case "mmio":
		mt, err := fwcfg.MapMMIOTransport(cfg.MMIO.Base)
		if err != nil {
			return err
		}
		defer mt.Close()
		t = mt
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	session, err := fwcfg.New(t, fwcfg.WithPreferDMA(!*legacy))
	if err != nil {
		return err
	}
	slog.Debug("session established", "features", fmt.Sprintf("%#x", session.Version()), "dma", session.DMAEnabled())

	if *list {
		return listDir(session)
	}
	return readFile(session, *read, *out)
}

func listDir(session *fwcfg.Session) error {
	dir := session.ScanDir()
	for dir.Scan() {
		f := dir.File()
		fmt.Printf("%#06x %10d  %s\n", f.Key, f.Size, f.Name)
	}
	return dir.Err()
}

func readFile(session *fwcfg.Session, name, out string) error {
	f, err := session.FindFile(name)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("no fw_cfg file named %q", name)
	}

	dst := os.Stdout
	if out != "" {
		dst, err = os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer dst.Close()
	}

	var writer io.Writer = dst
	if term.IsTerminal(int(os.Stderr.Fd())) && dst != os.Stdout {
		bar := progressbar.DefaultBytes(int64(f.Size), fmt.Sprintf("read %s", name))
		defer bar.Close()
		writer = io.MultiWriter(dst, bar)
	}

	if _, err := io.Copy(writer, session.FileReader(*f)); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fwcfgdump: %v\n", err)
		os.Exit(1)
	}
}
