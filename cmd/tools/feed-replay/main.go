//go:build pcap
// +build pcap

// Command feed-replay replays captured sensor-feed traffic from a PCAP file
// to a UDP address, paced by the capture timestamps. Useful for bench
// testing the pilot against recorded track sessions without hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

var (
	pcapFile = flag.String("pcap", "", "PCAP file to replay (required)")
	udpPort  = flag.Int("port", 8130, "UDP port to filter on in the capture")
	target   = flag.String("target", "127.0.0.1:8130", "UDP address to replay to")
	speed    = flag.Float64("speed", 1.0, "Replay speed factor (2.0 = twice as fast, 0 = no pacing)")
	loop     = flag.Bool("loop", false, "Restart from the beginning when the capture ends")
)

func main() {
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr, err := net.ResolveUDPAddr("udp", *target)
	if err != nil {
		log.Fatalf("failed to resolve target address: %v", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.Fatalf("failed to dial target: %v", err)
	}
	defer conn.Close()

	for {
		if err := replay(ctx, conn); err != nil {
			if err == context.Canceled {
				return
			}
			log.Fatalf("replay failed: %v", err)
		}
		if !*loop {
			return
		}
		log.Printf("capture ended, looping")
	}
}

// replay streams one pass of the capture to the target connection.
func replay(ctx context.Context, conn *net.UDPConn) error {
	handle, err := pcap.OpenOffline(*pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", *pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", *udpPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filterStr, err)
	}
	log.Printf("replaying %s (filter %q) to %s", *pcapFile, filterStr, conn.RemoteAddr())

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	packetCount := 0
	startTime := time.Now()
	var firstCapture time.Time

	for {
		select {
		case <-ctx.Done():
			log.Printf("replay stopping (%d packets sent)", packetCount)
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				elapsed := time.Since(startTime)
				log.Printf("replay complete: %d packets in %v", packetCount, elapsed)
				return nil
			}

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			// Pace by capture timestamps scaled by the speed factor.
			captureTime := packet.Metadata().Timestamp
			if *speed > 0 {
				if firstCapture.IsZero() {
					firstCapture = captureTime
				}
				offset := time.Duration(float64(captureTime.Sub(firstCapture)) / *speed)
				if wait := time.Until(startTime.Add(offset)); wait > 0 {
					select {
					case <-time.After(wait):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}

			if _, err := conn.Write(udp.Payload); err != nil {
				log.Printf("failed to send packet %d: %v", packetCount, err)
				continue
			}
			packetCount++
		}
	}
}
