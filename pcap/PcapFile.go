// Copyright (c) 2025-2026, The LBSIM Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package pcap writes transmission traces as PCAP files using the LoRaTap
// encapsulation, so that runs can be inspected in Wireshark.
package pcap

import (
	"encoding/binary"
	"fmt"
	"os"

	. "github.com/lorabandit/lbsim/types"
)

type FrameType int

const (
	FrameTypeOff FrameType = iota
	FrameTypeLoraTap
	FrameTypeUnknown
)

const (
	FrameTypeOffStr     string = "off"
	FrameTypeLoraTapStr string = "loratap"
)

// LoRaTap encapsulation specification is at https://github.com/eriknl/LoRaTap
const (
	dltLoraTap             = 270
	pcapMagicNumber        = 0xA1B2C3D4
	pcapVersionMajor       = 2
	pcapVersionMinor       = 4
	pcapFileHeaderSize     = 24
	pcapFrameHeaderSize    = 16
	pcapLoraTapHeaderSize  = 15
	loraTapRssiOffset      = 139
	loraWanPublicSyncWord  = 0x34
)

// File represents a PCAP file
type File interface {
	AppendFrame(frame Frame) error
	Sync() error
	Close() error
}

// Frame represents a single transmission that can be added to a PCAP file
type Frame struct {
	Timestamp uint64
	Data      []byte
	Params    TxParameters
	RssiDbm   DbValue
	SnrDb     DbValue
}

type loraTapFile struct {
	fd *os.File
}

// NewFile creates a new PCAP file with all frames using specified frameType
func NewFile(filename string, frameType FrameType) (File, error) {
	switch frameType {
	case FrameTypeLoraTap:
		return newLoraTapFile(filename)
	default:
		return nil, fmt.Errorf("invalid PCAP frame type: %d", frameType)
	}
}

func ParseFrameTypeStr(tp string) FrameType {
	switch tp {
	case FrameTypeOffStr:
		return FrameTypeOff
	case FrameTypeLoraTapStr:
		return FrameTypeLoraTap
	default:
		return FrameTypeUnknown
	}
}

func newLoraTapFile(filename string) (File, error) {
	fd, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	pf := &loraTapFile{
		fd: fd,
	}

	if err = pf.writeHeader(); err != nil {
		_ = pf.Close()
		return nil, err
	}

	return pf, nil
}

func (pf *loraTapFile) AppendFrame(frame Frame) error {
	var header [pcapFrameHeaderSize + pcapLoraTapHeaderSize]byte

	sec := uint32(frame.Timestamp / 1000000)
	usec := uint32(frame.Timestamp % 1000000)
	binary.LittleEndian.PutUint32(header[:4], sec)
	binary.LittleEndian.PutUint32(header[4:8], usec)
	frLen := uint32(len(frame.Data)) + pcapLoraTapHeaderSize
	binary.LittleEndian.PutUint32(header[8:12], frLen)
	binary.LittleEndian.PutUint32(header[12:pcapFrameHeaderSize], frLen)

	// LoRaTap v0 header, fields in network byte order.
	n := pcapFrameHeaderSize
	header[n] = 0 // lt_version
	header[n+1] = 0
	binary.BigEndian.PutUint16(header[n+2:n+4], pcapLoraTapHeaderSize)
	binary.BigEndian.PutUint32(header[n+4:n+8], uint32(frame.Params.FrequencyHz))
	header[n+8] = uint8(frame.Params.BandwidthHz / 125000) // in 125 kHz steps
	header[n+9] = uint8(frame.Params.Sf)
	header[n+10] = rssiByte(frame.RssiDbm) // packet RSSI
	header[n+11] = rssiByte(frame.RssiDbm) // max RSSI
	header[n+12] = rssiByte(frame.RssiDbm) // current RSSI
	header[n+13] = uint8(int8(clampDb(frame.SnrDb*4, -128, 127))) // SNR in quarter dB
	header[n+14] = loraWanPublicSyncWord

	var err error

	_, err = pf.fd.Write(header[:])
	if err != nil {
		return err
	}

	_, err = pf.fd.Write(frame.Data)
	return err
}

func (pf *loraTapFile) Sync() error {
	return pf.fd.Sync()
}

func (pf *loraTapFile) Close() error {
	return pf.fd.Close()
}

func (pf *loraTapFile) writeHeader() error {
	var header [pcapFileHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:4], pcapMagicNumber)
	binary.LittleEndian.PutUint16(header[4:6], pcapVersionMajor)
	binary.LittleEndian.PutUint16(header[6:8], pcapVersionMinor)
	binary.LittleEndian.PutUint32(header[8:12], 0)
	binary.LittleEndian.PutUint32(header[12:16], 0)
	binary.LittleEndian.PutUint32(header[16:20], 256)
	binary.LittleEndian.PutUint32(header[20:24], dltLoraTap)
	if _, err := pf.fd.Write(header[:]); err != nil {
		return err
	}
	return pf.fd.Sync()
}

// rssiByte encodes an RSSI value per LoRaTap convention (dBm + 139, clamped).
func rssiByte(rssiDbm DbValue) uint8 {
	return uint8(clampDb(rssiDbm+loraTapRssiOffset, 0, 255))
}

func clampDb(v DbValue, lo DbValue, hi DbValue) DbValue {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
