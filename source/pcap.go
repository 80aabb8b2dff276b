// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"io"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// Pcap 从 pcap 抓包文件中还原应用层字节流
//
// 所有数据包的应用层 Payload 按照抓包顺序拼接 不做 TCP 重组
// port 不为 0 时仅保留源端口或者目的端口匹配的 TCP/UDP 数据包
type Pcap struct {
	r       *pcapgo.Reader
	decoder gopacket.Decoder
	port    uint16

	pending []byte
	packets int
}

// NewPcap 创建并返回 *Pcap 实例
func NewPcap(r io.Reader, port uint16) (*Pcap, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read pcap header")
	}
	return &Pcap{
		r:       pr,
		decoder: pr.LinkType(),
		port:    port,
	}, nil
}

// Packets 返回已经读取的数据包数量
func (p *Pcap) Packets() int {
	return p.packets
}

// Read 实现 Source 接口
func (p *Pcap) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	// pending 引用 ZeroCopyReadPacketData 返回的内存 只有耗尽之后才会读取下一个包
	for len(p.pending) == 0 {
		data, _, err := p.r.ZeroCopyReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, errors.Wrap(err, "read pcap packet")
		}
		p.packets++
		p.pending = p.payload(data)
	}

	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *Pcap) payload(data []byte) []byte {
	pkt := gopacket.NewPacket(data, p.decoder, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	if p.port != 0 && !p.matchPort(pkt.TransportLayer()) {
		return nil
	}

	app := pkt.ApplicationLayer()
	if app == nil {
		return nil
	}
	return app.Payload()
}

func (p *Pcap) matchPort(lyr gopacket.TransportLayer) bool {
	switch t := lyr.(type) {
	case *layers.TCP:
		return uint16(t.SrcPort) == p.port || uint16(t.DstPort) == p.port
	case *layers.UDP:
		return uint16(t.SrcPort) == p.port || uint16(t.DstPort) == p.port
	}
	return false
}
